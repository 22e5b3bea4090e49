package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<Invoice/>"), 0644))
}

func newManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(
		filepath.Join(root, "input"),
		filepath.Join(root, "output"),
		filepath.Join(root, "input_archive"),
		filepath.Join(root, "output_archive"),
	)
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func TestDiscoverInputFiles(t *testing.T) {
	fm := newManager(t)
	touch(t, filepath.Join(fm.InputDir, "b.xml"))
	touch(t, filepath.Join(fm.InputDir, "a.xml"))
	touch(t, filepath.Join(fm.InputDir, "notes.txt"))
	touch(t, filepath.Join(fm.InputDir, "nested", "c.xml"))
	require.NoError(t, os.Mkdir(filepath.Join(fm.InputDir, "dir.xml"), 0755))

	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(fm.InputDir, "a.xml"),
		filepath.Join(fm.InputDir, "b.xml"),
	}, files)

	files, err = fm.DiscoverInputFilesRecursive("*.xml")
	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Contains(t, files, filepath.Join(fm.InputDir, "nested", "c.xml"))

	_, err = fm.DiscoverInputFilesRecursive("[")
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	fm := newManager(t)
	src := filepath.Join(fm.InputDir, "invoice.xml")
	touch(t, src)

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.InputArchiveDir, "invoice.xml"), archived)
	assert.NoFileExists(t, src)
	assert.FileExists(t, archived)
}

func TestArchiveOutputFileCopies(t *testing.T) {
	fm := newManager(t)
	fm.UseTimestampSubdirs = true
	out := filepath.Join(fm.OutputDir, "invoice_corrected.xml")
	touch(t, out)

	archived, err := fm.ArchiveOutputFile(out)
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.FileExists(t, archived)

	now := time.Now()
	assert.Equal(t, filepath.Join(fm.OutputArchiveDir, now.Format("2006"), now.Format("01"), now.Format("02"), "invoice_corrected.xml"), archived)
}

func TestArchiveDisabled(t *testing.T) {
	fm := newManager(t)
	fm.InputArchiveDir = ""
	src := filepath.Join(fm.InputDir, "invoice.xml")
	touch(t, src)

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, archived)
	assert.FileExists(t, src)
}

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{original}_corrected.xml", map[string]string{"original": "facture_42"})
	assert.Equal(t, "facture_42_corrected.xml", name)

	name = GenerateOutputFileName("{invoice}", map[string]string{"invoice": "FAC/2025:7"})
	assert.Equal(t, "FAC_2025_7.xml", name)

	name = GenerateOutputFileName("{uuid}", nil)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.xml$`), name)

	name = GenerateOutputFileName("{date}_{time}", nil)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}_\d{6}\.xml$`), name)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "invoice", BaseName("/tmp/in/invoice.xml"))
	assert.Equal(t, "archive.tar", BaseName("archive.tar.gz"))
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:        time.Now(),
		FileName:         "bad.xml",
		InvoiceID:        "FAC-1",
		ErrorType:        "validation",
		ErrorMessage:     "corrected invoice failed validation",
		ValidationErrors: []string{"missing invoice id"},
	}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Total Errors: 1")
	assert.Contains(t, text, "Invoice:        FAC-1")
	assert.Contains(t, text, "Check:          missing invoice id")
}

func TestWriteSummaryLog(t *testing.T) {
	start := time.Now()
	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:       start,
		EndTime:         start.Add(2 * time.Second),
		TotalFiles:      2,
		CorrectedFiles:  1,
		ConsistentFiles: 1,
		ProcessedFiles: []ProcessedFileInfo{{
			InputFile:   "a.xml",
			OutputFile:  "a_corrected.xml",
			InvoiceID:   "FAC-A",
			Detection:   "multiple",
			TotalBefore: "1145.60",
			TotalAfter:  "235.05",
		}},
	}, t.TempDir())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Corrected:       1")
	assert.Contains(t, text, "Total HT:     1145.60 -> 235.05")
	assert.True(t, strings.HasSuffix(text, "End of Summary\n"))
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2024", "old.xml")
	fresh := filepath.Join(dir, "fresh.xml")
	touch(t, old)
	touch(t, fresh)

	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := CleanOldArchives(dir, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	removed, err = CleanOldArchives(filepath.Join(dir, "missing"), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
