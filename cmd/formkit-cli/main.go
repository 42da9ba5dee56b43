package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lensworks/formkit/pkg/changeset"
	"github.com/lensworks/formkit/pkg/form"
	"github.com/lensworks/formkit/pkg/schema"
	"github.com/lensworks/formkit/pkg/schemaload"
	"github.com/lensworks/formkit/pkg/tui"
)

func main() {
	schemaPath := flag.String("schema", "", "YAML form schema path")
	openapiPath := flag.String("openapi", "", "OpenAPI document path (alternative to -schema)")
	operation := flag.String("operation", "", "operation ID when deriving from OpenAPI")
	seedPath := flag.String("seed", "", "optional JSON file with an existing record")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	formSchema, err := loadSchema(ctx, *schemaPath, *openapiPath, *operation)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}

	seed, err := loadSeed(*seedPath)
	if err != nil {
		log.Fatalf("Failed to load seed: %v", err)
	}

	f, err := form.Mount(formSchema, form.WithSeed(seed))
	if err != nil {
		log.Fatalf("Failed to mount form: %v", err)
	}
	defer f.Unmount()

	session := tui.NewSession(f)
	if err := session.Run(ctx, formSchema); err != nil {
		log.Fatalf("Session failed: %v", err)
	}

	cs, enc, err := f.Submit()
	if err != nil {
		log.Fatalf("Submit failed: %v", err)
	}
	if len(cs) == 0 {
		fmt.Println("No changes; nothing to send.")
		return
	}

	if err := writePayload(cs, enc, *output); err != nil {
		log.Fatalf("Failed to write payload: %v", err)
	}
}

func loadSchema(ctx context.Context, schemaPath, openapiPath, operation string) (schema.FormSchema, error) {
	switch {
	case schemaPath != "":
		return schemaload.FromYAMLFile(schemaPath)
	case openapiPath != "":
		if operation == "" {
			return schema.FormSchema{}, fmt.Errorf("-operation is required with -openapi")
		}
		data, err := os.ReadFile(openapiPath)
		if err != nil {
			return schema.FormSchema{}, err
		}
		return schemaload.FromOpenAPI(ctx, data, operation)
	default:
		return schema.FormSchema{}, fmt.Errorf("one of -schema or -openapi is required")
	}
}

func loadSeed(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed map[string]any
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return seed, nil
}

func writePayload(cs changeset.ChangeSet, enc changeset.Encoding, output string) error {
	var out io.Writer = os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	switch enc {
	case changeset.EncodingMultipart:
		payload, err := changeset.EncodeMultipart(cs)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Content-Type: %s\n", payload.ContentType)
		_, err = io.Copy(out, payload.Body)
		return err
	default:
		data, err := changeset.EncodeJSON(cs)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
}
