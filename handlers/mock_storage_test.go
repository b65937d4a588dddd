package handlers

import "mime/multipart"

type mockStorage struct {
	UploadProductImageFn  func(file multipart.File, filename, contentType string) (string, error)
	UploadHandoverPhotoFn func(file multipart.File, filename, contentType string) (string, error)
	UploadDocumentFn      func(data []byte, filename, contentType string) (string, error)
	DeleteFileFn          func(objectPath string) error
	DeleteFileCalls       []string
	UploadCallCount       int
	DocumentUploads       []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		DeleteFileCalls: []string{},
	}
}

func (m *mockStorage) UploadProductImage(file multipart.File, filename, contentType string) (string, error) {
	m.UploadCallCount++
	if m.UploadProductImageFn != nil {
		return m.UploadProductImageFn(file, filename, contentType)
	}
	return "https://storage.googleapis.com/test-bucket/products/test_image.jpg", nil
}

func (m *mockStorage) UploadHandoverPhoto(file multipart.File, filename, contentType string) (string, error) {
	m.UploadCallCount++
	if m.UploadHandoverPhotoFn != nil {
		return m.UploadHandoverPhotoFn(file, filename, contentType)
	}
	return "https://storage.googleapis.com/test-bucket/handovers/test_photo.jpg", nil
}

func (m *mockStorage) UploadDocument(data []byte, filename, contentType string) (string, error) {
	m.UploadCallCount++
	m.DocumentUploads = append(m.DocumentUploads, filename)
	if m.UploadDocumentFn != nil {
		return m.UploadDocumentFn(data, filename, contentType)
	}
	return "https://storage.googleapis.com/test-bucket/documents/" + filename, nil
}

func (m *mockStorage) DeleteFile(objectPath string) error {
	m.DeleteFileCalls = append(m.DeleteFileCalls, objectPath)
	if m.DeleteFileFn != nil {
		return m.DeleteFileFn(objectPath)
	}
	return nil
}
