package firebase

import "mime/multipart"

// StorageClient abstracts Firebase Storage operations for dependency injection and testing.
type StorageClient interface {
	UploadProductImage(file multipart.File, filename, contentType string) (string, error)
	UploadHandoverPhoto(file multipart.File, filename, contentType string) (string, error)
	UploadDocument(data []byte, filename, contentType string) (string, error)
	DeleteFile(objectPath string) error
}

// FirebaseStorageClient is the real implementation that delegates to package-level functions.
type FirebaseStorageClient struct{}

func NewStorageClient() StorageClient {
	return &FirebaseStorageClient{}
}

func (f *FirebaseStorageClient) UploadProductImage(file multipart.File, filename, contentType string) (string, error) {
	return UploadProductImage(file, filename, contentType)
}

func (f *FirebaseStorageClient) UploadHandoverPhoto(file multipart.File, filename, contentType string) (string, error) {
	return UploadHandoverPhoto(file, filename, contentType)
}

func (f *FirebaseStorageClient) UploadDocument(data []byte, filename, contentType string) (string, error) {
	return UploadDocument(data, filename, contentType)
}

func (f *FirebaseStorageClient) DeleteFile(objectPath string) error {
	return DeleteFile(objectPath)
}
