package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"time"

	"github.com/jrsteele09/go-profile-uploader/tenants"
)

const (
	// FieldName is the multipart field the backend reads the picture from
	FieldName = "profilePic"
	// ContentType is sent for every picture; the source format is not inspected
	ContentType = "image/jpeg"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ProgressFunc receives the percentage of the request body sent so far
type ProgressFunc func(percent int)

// FileName builds the uploaded file name, unique per tenant and millisecond
func FileName(t tenants.Type, at time.Time) string {
	return fmt.Sprintf("profile_%s_%d.jpg", t, at.UnixMilli())
}

// multipartBody encodes the picture as a single-part form
func multipartBody(image []byte, t tenants.Type) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, FileName(t, NowTimeFunc())))
	header.Set("Content-Type", ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

// progressReader reports how much of a fixed size body has been read.
// Reported values never decrease.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     int
	progress ProgressFunc
}

func newProgressReader(r io.Reader, total int64, progress ProgressFunc) io.Reader {
	if progress == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	percent := int(p.read * 100 / p.total)
	if percent > 100 {
		percent = 100
	}
	if percent > p.last {
		p.last = percent
		p.progress(percent)
	}
	return n, err
}
