package clinic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
)

// doctorForm encodes the fixed multipart field set shared by add-doctor
// and update-profile: docId, name, email, speciality, degree, experience,
// about, fees, address, available, image?. The address travels as a JSON
// sub-document, matching what the backend stores.
func doctorForm(d DoctorUpdate, includePassword bool) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	addr, err := json.Marshal(d.Address)
	if err != nil {
		return nil, "", fmt.Errorf("marshal address: %w", err)
	}

	fields := [][2]string{
		{"docId", d.DocID},
		{"name", d.Name},
		{"email", d.Email},
		{"speciality", d.Speciality},
		{"degree", d.Degree},
		{"experience", d.Experience},
		{"about", d.About},
		{"fees", strconv.FormatFloat(d.Fees, 'f', -1, 64)},
		{"address", string(addr)},
		{"available", strconv.FormatBool(d.Available)},
	}
	if includePassword {
		fields = append(fields, [2]string{"password", d.Password})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if d.ImagePath != "" {
		file, err := os.Open(d.ImagePath)
		if err != nil {
			return nil, "", fmt.Errorf("open image: %w", err)
		}
		defer file.Close()
		part, err := w.CreateFormFile("image", filepath.Base(d.ImagePath))
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("copy image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
