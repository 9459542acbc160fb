package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"testing"
)

func fileHeader(t *testing.T, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "upload.bin")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm() error = %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestUploadPictureRejectsNonImage(t *testing.T) {
	svc, err := NewCloudinaryService("demo", "key", "secret")
	if err != nil {
		t.Fatalf("NewCloudinaryService() error = %v", err)
	}
	_, err = svc.UploadPicture(context.Background(), fileHeader(t, []byte("just some text")), "principal")
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("UploadPicture() error = %v, want ErrNotImage", err)
	}
}

func TestPictureID(t *testing.T) {
	if got := pictureID("abc/def:ghi jkl"); got != "abc_def_ghi_jkl" {
		t.Fatalf("pictureID() = %q", got)
	}
}
