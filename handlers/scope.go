package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// franchiseScope returns the caller's franchise id and whether queries must
// be restricted to it. Admins operate across every franchise.
func franchiseScope(c *gin.Context) (uuid.UUID, bool) {
	if role, _ := c.Get("user_role"); role == "admin" {
		return uuid.Nil, false
	}
	if fID, ok := c.Get("franchise_id"); ok {
		if id, ok := fID.(uuid.UUID); ok {
			return id, true
		}
	}
	// Restricted caller without a franchise matches nothing.
	return uuid.Nil, true
}

// currentUserID returns the authenticated user's id, or nil when absent.
func currentUserID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

// currentUserEmail is best-effort; audit entries tolerate an empty email.
func currentUserEmail(c *gin.Context) string {
	if v, ok := c.Get("user_email"); ok {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
