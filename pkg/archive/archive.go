// Package archive unpacks fetched response bodies that arrive as zip
// or gzip archives, a common shape for bulk data downloads.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// Extract decompresses body. Zip is tried first; anything that is not
// a zip archive is treated as gzip, and a body that is neither comes
// back unchanged.
//
// For zip archives, target selects the member to pull out: a member
// whose lowercased name (spaces replaced with underscores) contains
// target and ends in .csv. A single-member archive is always
// extracted regardless of target. When no member matches, the raw
// body is returned.
func Extract(body []byte, target string) ([]byte, error) {
	if zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body))); err == nil {
		return extractZip(zr, target, body)
	}

	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return body, nil
	}
	defer gz.Close()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("gunzip body: %w", err)
	}
	return data, nil
}

func extractZip(zr *zip.Reader, target string, body []byte) ([]byte, error) {
	target = strings.ToLower(target)

	for _, f := range zr.File {
		name := strings.ReplaceAll(strings.ToLower(f.Name), " ", "_")
		matched := strings.Contains(name, target) && strings.HasSuffix(name, ".csv")
		if !matched && len(zr.File) != 1 {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip member %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip member %s: %w", f.Name, err)
		}
		return data, nil
	}

	return body, nil
}
