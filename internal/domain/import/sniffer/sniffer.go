// Package sniffer detects the layout of delimited text exports of invoice
// tables: the delimiter, how many metadata lines precede the header, and a
// fingerprint of the header for recognizing a provider layout.
package sniffer

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/normalizer"
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("no header row found")
	ErrInvalidDelimiter = errors.New("could not detect delimiter")
)

// Invoice header keywords, folded.
var headerKeywords = []string{
	"data", "documento", "numero", "referencia", "vencimento", "total",
	"historico", "consumo", "valor", "periodo", "leitura",
	"date", "reference", "amount", "due",
}

// maxHeaderSearch bounds how many leading lines may be metadata.
const maxHeaderSearch = 20

// FileConfig holds the detected layout of a delimited file.
type FileConfig struct {
	Delimiter   rune     // ';', ',', '\t' or '|'
	SkipLines   int      // metadata lines before the header
	Headers     []string // trimmed header names
	Fingerprint string   // sha256 of the folded header names
}

// DetectConfig analyzes a delimited file.
func DetectConfig(data []byte) (*FileConfig, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	delimiter, skip, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(cleanLine(lines[skip], skip == 0)))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skip,
		Headers:     headers,
		Fingerprint: Fingerprint(headers),
	}, nil
}


// findHeaderRow prefers the widest line holding invoice keywords and
// otherwise the widest line overall.
func findHeaderRow(lines []string) (rune, int, error) {
	keywordIndex, keywordCount, keywordDelimiter := -1, 0, rune(0)
	fallbackIndex, fallbackCount, fallbackDelimiter := -1, 0, rune(0)

	for i, line := range lines {
		if i > maxHeaderSearch {
			break
		}
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		folded := normalizer.Fold(line)
		matches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(folded, kw) {
				matches++
			}
		}

		if matches > 0 {
			if keywordIndex == -1 || count > keywordCount {
				keywordIndex, keywordCount, keywordDelimiter = i, count, delimiter
			}
		} else if count > fallbackCount {
			fallbackIndex, fallbackCount, fallbackDelimiter = i, count, delimiter
		}
	}

	if keywordIndex >= 0 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackIndex >= 0 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ErrNoHeadersFound
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// Fingerprint hashes the folded header names, so two exports of the same
// provider layout share a fingerprint.
func Fingerprint(headers []string) string {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		if k := normalizer.Key(h); k != "" {
			normalized = append(normalized, k)
		}
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
