package service

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
)

// TextExtractor returns the cleaned text of every readable page.
type TextExtractor interface {
	ExtractPages(ctx context.Context, filePath string) ([]types.PageText, error)
}

// PDFService extracts page text with poppler-utils, falling back to
// tesseract OCR for scanned pages.
type PDFService struct {
	tempDir string
	logger  *slog.Logger
}

func NewPDFService(tempDir string) *PDFService {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &PDFService{
		tempDir: tempDir,
		logger:  logger.NewModuleLogger("service", "pdf"),
	}
}

// ExtractPages reads every page of the PDF at filePath. Pages that yield no
// text with either method are skipped.
func (s *PDFService) ExtractPages(ctx context.Context, filePath string) ([]types.PageText, error) {
	totalPages, err := getNumPages(ctx, filePath)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("extracting pdf", "file", filepath.Base(filePath), "pages", totalPages)

	pages := make([]types.PageText, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := s.extractText(ctx, filePath, pageNum)
		if err != nil {
			s.logger.Warn("skipping page", "page", pageNum, "error", err)
			continue
		}
		text = cleanText(text)
		if text == "" {
			continue
		}
		pages = append(pages, types.PageText{PageNum: pageNum, Text: text})
	}
	return pages, nil
}

// GetFileNameWithoutExt extracts filename without extension from a file path
func GetFileNameWithoutExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// extractText attempts to extract text from a specific page using multiple methods
func (s *PDFService) extractText(ctx context.Context, filePath string, pageNumber int) (string, error) {
	text, err := extractTextWithPdftotext(ctx, filePath, pageNumber)
	if err != nil || text == "" {
		text, err = s.extractTextWithTesseract(ctx, filePath, pageNumber)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
	}
	return text, nil
}

func extractTextWithPdftotext(ctx context.Context, filePath string, pageNumber int) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk", "-layout",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftotext page %d: %w", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(out.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

func (s *PDFService) extractTextWithTesseract(ctx context.Context, pdfPath string, pageNumber int) (string, error) {
	tempFolder, err := os.MkdirTemp(s.tempDir, GetFileNameWithoutExt(pdfPath)+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempFolder)

	convertCmd := exec.CommandContext(ctx, "pdftoppm", "-f", strconv.Itoa(pageNumber), "-l", strconv.Itoa(pageNumber), "-png", pdfPath, filepath.Join(tempFolder, "page"))
	if err := convertCmd.Run(); err != nil {
		return "", fmt.Errorf("convert page %d to image: %w", pageNumber, err)
	}
	images, err := filepath.Glob(filepath.Join(tempFolder, "page-*.png"))
	if err != nil || len(images) == 0 {
		return "", fmt.Errorf("no rendered image for page %d", pageNumber)
	}

	ocrCmd := exec.CommandContext(ctx, "tesseract",
		images[0],
		"stdout",
		"-l", "eng",
		"--oem", "3",
		"--psm", "6", // uniform block of text suits statement tables
	)
	var ocrOut bytes.Buffer
	ocrCmd.Stdout = &ocrOut
	if err := ocrCmd.Run(); err != nil {
		return "", fmt.Errorf("failed to run tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(ocrOut.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

var pagesRe = regexp.MustCompile(`Pages:\s+(\d+)`)

// getNumPages uses pdfinfo to get the total number of pages in a PDF file
func getNumPages(ctx context.Context, pdfPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %w", err)
	}
	return parseNumPages(&out)
}

func parseNumPages(out *bytes.Buffer) (int, error) {
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		if matches := pagesRe.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

var (
	textReplacer = strings.NewReplacer(
		"\u0000", "",
		"\ufffd", "",
		"\u001b", "",
		"\u00a0", " ",
		"\r", "",
		"\f", "\n",
	)
	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
	multiLineRe  = regexp.MustCompile(`\n{3,}`)
)

func cleanText(text string) string {
	cleaned := textReplacer.Replace(text)
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	cleaned = multiLineRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
