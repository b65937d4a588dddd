package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type WhatsAppConfig struct {
	APIURL string
	Token  string
}

func GetWhatsAppConfig() *WhatsAppConfig {
	return &WhatsAppConfig{
		APIURL: os.Getenv("WATI_API_URL"),
		Token:  os.Getenv("WATI_API_TOKEN"),
	}
}

var whatsappClient = &http.Client{Timeout: 10 * time.Second}

// SendWhatsAppMessage posts a session message to the WATI gateway. Returns
// an error when the gateway is not configured or rejects the request.
func SendWhatsAppMessage(phone, message string) error {
	config := GetWhatsAppConfig()
	if config.APIURL == "" || config.Token == "" {
		return fmt.Errorf("WhatsApp gateway not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"whatsappNumber": phone,
		"messageText":    message,
	})
	if err != nil {
		return err
	}

	url := strings.TrimRight(config.APIURL, "/") + "/api/v1/sendSessionMessage/" + phone
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.Token)

	resp, err := whatsappClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("WhatsApp gateway returned status %d", resp.StatusCode)
	}
	return nil
}

func SendBookingConfirmation(phone, name, bookingNumber string, total float64) {
	go func() {
		message := fmt.Sprintf("Hi %s, your booking %s has been confirmed. Total amount: £%.2f. Thank you for choosing Rivaaz!",
			strings.Split(name, " ")[0], bookingNumber, total)
		if err := SendWhatsAppMessage(phone, message); err != nil {
			log.Printf("Failed to send booking confirmation to %s: %v", phone, err)
		}
	}()
}

func SendDeliveryNotification(phone, name, deliveryNumber, status string) {
	go func() {
		message := fmt.Sprintf("Hi %s, your delivery %s is now %s.",
			strings.Split(name, " ")[0], deliveryNumber, strings.ReplaceAll(status, "_", " "))
		if err := SendWhatsAppMessage(phone, message); err != nil {
			log.Printf("Failed to send delivery notification to %s: %v", phone, err)
		}
	}()
}

func SendSettlementNotification(phone, name, invoiceNumber string, refund, extra float64) {
	go func() {
		var message string
		first := strings.Split(name, " ")[0]
		switch {
		case refund > 0:
			message = fmt.Sprintf("Hi %s, your settlement %s is complete. A refund of £%.2f is due to you.", first, invoiceNumber, refund)
		case extra > 0:
			message = fmt.Sprintf("Hi %s, your settlement %s is complete. An outstanding charge of £%.2f is payable.", first, invoiceNumber, extra)
		default:
			message = fmt.Sprintf("Hi %s, your settlement %s is complete. No further payment is due.", first, invoiceNumber)
		}
		if err := SendWhatsAppMessage(phone, message); err != nil {
			log.Printf("Failed to send settlement notification to %s: %v", phone, err)
		}
	}()
}
