package archive

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"testing"
)

func zipBody(t *testing.T, members map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create zip member failed: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Write zip member failed: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close zip writer failed: %v", err)
	}
	return buf.Bytes()
}

func gzipBody(t *testing.T, content string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("Write gzip failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("Close gzip writer failed: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_ZipTargetMember(t *testing.T) {
	body := zipBody(t, map[string]string{
		"README.txt":        "ignore me",
		"Daily Prices.csv":  "date,price\n2026-08-01,10\n",
		"Weekly Totals.csv": "week,total\n31,70\n",
	})

	got, err := Extract(body, "daily_prices")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if string(got) != "date,price\n2026-08-01,10\n" {
		t.Errorf("Extract = %q, want the daily prices member", got)
	}
}

func TestExtract_ZipSingleMemberAlwaysExtracted(t *testing.T) {
	body := zipBody(t, map[string]string{
		"whatever.dat": "contents",
	})

	got, err := Extract(body, "no-such-target")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if string(got) != "contents" {
		t.Errorf("Extract = %q, want the sole member", got)
	}
}

func TestExtract_ZipNoMatchReturnsRawBody(t *testing.T) {
	body := zipBody(t, map[string]string{
		"a.txt": "aaa",
		"b.txt": "bbb",
	})

	got, err := Extract(body, "prices")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Error("Extract with no matching member should return the raw body")
	}
}

func TestExtract_Gzip(t *testing.T) {
	body := gzipBody(t, "a,b\n1,2\n")

	got, err := Extract(body, "")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if string(got) != "a,b\n1,2\n" {
		t.Errorf("Extract = %q, want the decompressed content", got)
	}
}

func TestExtract_PlainBodyPassesThrough(t *testing.T) {
	body := []byte("just,plain,csv\n1,2,3\n")

	got, err := Extract(body, "anything")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("Extract = %q, want the body unchanged", got)
	}
}
