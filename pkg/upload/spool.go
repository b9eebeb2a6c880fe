package upload

import (
	"io"
	"io/ioutil"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yurykabanov/backup-server/pkg/domain"
)

var ErrValueTooLarge = &domain.ValidationError{Field: "form", Reason: "Form values exceed the allowed size"}

type Form struct {
	Values map[string][]string
	Files  []domain.UploadedFile
}

func (f *Form) Value(key string) string {
	if values := f.Values[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Spooler streams multipart requests to disk: file parts go to
// server-assigned names under dir, everything else is kept in memory up to
// maxValueBytes in total.
type Spooler struct {
	dir           string
	maxValueBytes int64
}

func NewSpooler(dir string, maxValueBytes int64) *Spooler {
	return &Spooler{
		dir:           dir,
		maxValueBytes: maxValueBytes,
	}
}

func (s *Spooler) Dir() string {
	return s.dir
}

// Spool consumes the whole reader. On error no spooled file is left behind.
func (s *Spooler) Spool(r *multipart.Reader) (form *Form, err error) {
	form = &Form{Values: make(map[string][]string)}

	defer func() {
		if err != nil {
			for _, file := range form.Files {
				_ = os.Remove(file.TempPath)
			}
			form = nil
		}
	}()

	err = os.MkdirAll(s.dir, 0755)
	if err != nil {
		return form, &domain.FilesystemError{Op: "create uploads directory", Err: err}
	}

	remaining := s.maxValueBytes

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			return form, nil
		}
		if err != nil {
			return form, &domain.ValidationError{Field: "files", Reason: "Malformed multipart body: " + err.Error()}
		}

		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}

		if part.FileName() == "" {
			data, err := ioutil.ReadAll(io.LimitReader(part, remaining+1))
			_ = part.Close()
			if err != nil {
				return form, &domain.ValidationError{Field: name, Reason: "Malformed form value: " + err.Error()}
			}

			remaining -= int64(len(data))
			if remaining < 0 {
				return form, ErrValueTooLarge
			}

			form.Values[name] = append(form.Values[name], string(data))
			continue
		}

		file, err := s.spoolFile(part)
		_ = part.Close()
		if err != nil {
			return form, err
		}

		form.Files = append(form.Files, file)
	}
}

func (s *Spooler) spoolFile(part *multipart.Part) (domain.UploadedFile, error) {
	tempPath := filepath.Join(s.dir, uuid.New().String())

	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return domain.UploadedFile{}, &domain.FilesystemError{Op: "create upload file", Err: err}
	}

	size, err := io.Copy(f, part)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return domain.UploadedFile{}, &domain.FilesystemError{Op: "store uploaded file " + part.FileName(), Err: err}
	}

	return domain.UploadedFile{
		FieldName:    part.FormName(),
		OriginalName: part.FileName(),
		TempPath:     tempPath,
		Size:         size,
	}, nil
}
