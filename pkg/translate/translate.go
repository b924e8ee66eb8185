// Package translate applies language packs to result frames.
package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/language"

	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/frame"
)

// Source is the language result values are produced in.
const Source = "en"

// Dictionary maps English values and headers to their translation.
type Dictionary map[string]string

// Translator reads language packs from dir/<code>.json on every call, so
// packs can be edited without a restart.
type Translator struct {
	dir string
}

func New(dir string) *Translator {
	return &Translator{dir: dir}
}

// Resolve normalises a language parameter ("fr", "fr-FR", "FR") to its base code.
func Resolve(code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", pipelineerrors.InvalidParameter("language", code, "not a language tag")
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// Load returns the dictionary for code. English needs none and yields nil.
func (t *Translator) Load(code string) (Dictionary, error) {
	base, err := Resolve(code)
	if err != nil {
		return nil, err
	}
	if base == Source {
		return nil, nil
	}

	content, err := os.ReadFile(filepath.Join(t.dir, base+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pipelineerrors.InvalidParameter("language", code, "no translation available")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read language pack %s: %w", base, err)
	}

	var dict Dictionary
	if err := json.Unmarshal(content, &dict); err != nil {
		return nil, fmt.Errorf("failed to parse language pack %s: %w", base, err)
	}
	return dict, nil
}

func (d Dictionary) word(s string) string {
	if translated, ok := d[s]; ok {
		return translated
	}
	return s
}

// Apply translates string cells, list elements and column headers in place.
func (d Dictionary) Apply(f *frame.Frame) *frame.Frame {
	if len(d) == 0 {
		return f
	}

	for _, row := range f.Rows {
		for column, v := range row {
			switch x := v.(type) {
			case string:
				row[column] = d.word(x)
			case frame.Tuple:
				translated := make(frame.Tuple, len(x))
				for i, s := range x {
					translated[i] = d.word(s)
				}
				row[column] = translated
			case []string:
				translated := make([]string, len(x))
				for i, s := range x {
					translated[i] = d.word(s)
				}
				row[column] = translated
			}
		}
	}

	renamed := make(map[string]string)
	for i, column := range f.Columns {
		if translated := d.word(column); translated != column {
			renamed[column] = translated
			f.Columns[i] = translated
		}
	}
	if len(renamed) > 0 {
		for _, row := range f.Rows {
			for from, to := range renamed {
				if v, ok := row[from]; ok {
					delete(row, from)
					row[to] = v
				}
			}
		}
	}
	return f
}
