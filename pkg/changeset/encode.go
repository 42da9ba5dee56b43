package changeset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
)

// MultipartPayload is the assembled multipart/form-data body together with
// the boundary-bearing content type for the request header.
type MultipartPayload struct {
	Body        io.Reader
	ContentType string
}

// EncodeJSON serialises a structured change-set. Callers should only reach
// for this when Build reported EncodingStructured.
func EncodeJSON(cs ChangeSet) ([]byte, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("changeset: refusing to encode an empty change-set")
	}
	data, err := json.Marshal(cs)
	if err != nil {
		return nil, fmt.Errorf("changeset: encode json: %w", err)
	}
	return data, nil
}

// EncodeMultipart serialises a change-set as multipart/form-data. FileRef
// values become file parts; slices and maps are embedded as JSON text;
// remaining scalars are written as plain fields. Fields are emitted in
// sorted key order so payloads are reproducible.
func EncodeMultipart(cs ChangeSet) (*MultipartPayload, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("changeset: refusing to encode an empty change-set")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	keys := make([]string, 0, len(cs))
	for key := range cs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch v := cs[key].(type) {
		case FileRef:
			if err := writeFilePart(writer, key, v); err != nil {
				return nil, err
			}
		case *FileRef:
			if v == nil {
				continue
			}
			if err := writeFilePart(writer, key, *v); err != nil {
				return nil, err
			}
		case []any, []map[string]any, map[string]any:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("changeset: encode field %q: %w", key, err)
			}
			if err := writer.WriteField(key, string(encoded)); err != nil {
				return nil, fmt.Errorf("changeset: write field %q: %w", key, err)
			}
		default:
			if err := writer.WriteField(key, fmt.Sprintf("%v", v)); err != nil {
				return nil, fmt.Errorf("changeset: write field %q: %w", key, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("changeset: close multipart writer: %w", err)
	}

	return &MultipartPayload{
		Body:        &body,
		ContentType: writer.FormDataContentType(),
	}, nil
}

func writeFilePart(writer *multipart.Writer, key string, ref FileRef) error {
	name := ref.Name
	if name == "" {
		name = key
	}
	part, err := writer.CreateFormFile(key, name)
	if err != nil {
		return fmt.Errorf("changeset: create file part %q: %w", key, err)
	}
	if _, err := part.Write(ref.Content); err != nil {
		return fmt.Errorf("changeset: write file part %q: %w", key, err)
	}
	return nil
}
