// Package storage uploads guardian identity documents (aadhaar/pan) to the
// external blob host and returns their public URLs.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/blindlink/guardian-connect-backend/env"
	"github.com/google/uuid"
)

// Upload posts the document under folder/<guardianID>_<uuid><ext> and
// returns the public URL the host assigns.
func Upload(ctx context.Context, reader io.Reader, folder, guardianID, filename string) (string, error) {
	name := fmt.Sprintf("%s_%s%s", guardianID, uuid.NewString(), path.Ext(filename))

	b := &bytes.Buffer{}
	mw := multipart.NewWriter(b)
	fw, err := mw.CreateFormFile("document", path.Join(folder, name))
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(fw, reader); err != nil {
		return "", err
	}
	mw.Close()

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, env.DOCS_UPLOAD_URL, b)
	if err != nil {
		return "", err
	}
	r.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("storage: upload status %d", resp.StatusCode)
	}
	var body struct {
		Status int    `json:"status"`
		Url    string `json:"url"`
	}
	decoder := json.NewDecoder(resp.Body)
	err = decoder.Decode(&body)
	return body.Url, err
}
