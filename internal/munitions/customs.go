package munitions

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CustomsFile is the default name of the custom catalog document.
const CustomsFile = "customs.xml"

// CustomFields are the user-editable attributes of a custom weapon. Absent
// values are empty strings.
type CustomFields struct {
	Name           string
	Description    string
	Standing       string
	Prone          string
	ProneProtected string
	RicochetFan    string
}

// customsDoc is the on-disk shape: one root element wrapping weapon elements.
type customsDoc struct {
	XMLName xml.Name
	Weapons []customWeapon `xml:"weapon"`
}

type customWeapon struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

// LoadCustoms reads the custom catalog at path. A missing file yields an
// empty customs view and no error; a corrupt file yields an empty view and
// the decode error.
func LoadCustoms(path string) (*Node, error) {
	customs := &Node{Kind: KindCustoms, Name: CustomsElement}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return customs, nil
		}
		return customs, fmt.Errorf("read customs: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return customs, nil
	}

	var doc customsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return customs, fmt.Errorf("decode customs: %w", err)
	}

	for _, w := range doc.Weapons {
		customs.Append(weaponFromAttrs(w.Attrs))
	}
	return customs, nil
}

// MarshalCustoms renders the customs view as a document.
func MarshalCustoms(customs *Node) ([]byte, error) {
	doc := customsDoc{XMLName: xml.Name{Local: CustomsElement}}
	for _, c := range customs.Children {
		if c.Kind != KindWeapon {
			continue
		}
		doc.Weapons = append(doc.Weapons, customWeapon{Attrs: weaponAttrs(c)})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode customs: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// SaveCustoms atomically rewrites the custom catalog at path.
func SaveCustoms(path string, customs *Node) error {
	data, err := MarshalCustoms(customs)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, 0644)
}

// writeFileAtomic writes data to a temp file beside path and renames it over
// path, so readers never see a truncated document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
