// package formatter provides functions to export playlists to various formats (CSV, JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/chordsync/internal/catalog"
	"github.com/desertthunder/chordsync/internal/chords"
	"github.com/desertthunder/chordsync/internal/shared"
)

// Export is a playlist with its songs in playlist order.
type Export struct {
	Key      string       `json:"key"`
	Name     string       `json:"name"`
	Notes    string       `json:"notes,omitempty"`
	OwnerUID string       `json:"ownerUid"`
	Shared   bool         `json:"shared"`
	Role     string       `json:"role,omitempty"`
	Songs    []ExportSong `json:"songs"`
}

// ExportSong is one playlist entry.
type ExportSong struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Order     int    `json:"order"`
	Transpose int    `json:"transpose"`
	Content   string `json:"content"`
}

// NewExport builds an export from a playlist and its loaded entries.
// When transposed is set, song content is rewritten with each entry's transpose applied.
func NewExport(view catalog.PlaylistView, items []catalog.Item, transposed bool) *Export {
	export := &Export{
		Key:      view.Key,
		Name:     view.DisplayName(),
		Notes:    view.Notes,
		OwnerUID: view.OwnerUID,
		Shared:   view.Shared,
		Songs:    make([]ExportSong, 0, len(items)),
	}
	if view.Shared {
		export.Role = string(view.Role)
	}

	for _, it := range items {
		content := it.Song.Content
		if transposed {
			content = chords.TransposeText(content, it.Transpose)
		}
		export.Songs = append(export.Songs, ExportSong{
			ID:        it.SongID,
			Title:     it.Song.Title,
			Order:     it.Order,
			Transpose: it.Transpose,
			Content:   content,
		})
	}
	return export
}

// ExportToCSV converts an Export to CSV format with columns: ID, Title, Order, Transpose
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Order", "Transpose"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Songs {
		record := []string{
			song.ID,
			song.Title,
			strconv.Itoa(song.Order),
			strconv.Itoa(song.Transpose),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to Markdown with every song in a fenced block
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Name))

	if export.Notes != "" {
		buf.WriteString(fmt.Sprintf("**Notes**: %s\n\n", export.Notes))
	}

	buf.WriteString(fmt.Sprintf("**Songs**: %d\n", len(export.Songs)))
	buf.WriteString(fmt.Sprintf("**Access**: %s\n\n", AccessString(export)))

	buf.WriteString("## Songs\n")
	for i, song := range export.Songs {
		buf.WriteString(fmt.Sprintf("\n### %d. %s%s\n\n", i+1, song.Title, transposeSuffix(song.Transpose)))
		buf.WriteString("```\n")
		buf.WriteString(strings.TrimRight(song.Content, "\n"))
		buf.WriteString("\n```\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text format
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Name))
	if export.Notes != "" {
		buf.WriteString(fmt.Sprintf("Notes: %s\n", export.Notes))
	}
	buf.WriteString(fmt.Sprintf("Songs: %d\n\n", len(export.Songs)))

	for i, song := range export.Songs {
		buf.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, song.Title, transposeSuffix(song.Transpose)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts an Export to indented JSON including song content
func ExportToJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// AccessString describes who can change the playlist.
func AccessString(export *Export) string {
	if !export.Shared {
		return "Owner"
	}
	if export.Role == "editor" {
		return "Shared (editor)"
	}
	return "Shared (viewer)"
}

func transposeSuffix(n int) string {
	switch {
	case n > 0:
		return fmt.Sprintf(" [+%d]", n)
	case n < 0:
		return fmt.Sprintf(" [%d]", n)
	default:
		return ""
	}
}

// BaseName derives a file name from the playlist key.
func BaseName(export *Export) string {
	name := strings.ReplaceAll(export.Key, "__", "_")
	if name == "" {
		name = "playlist"
	}
	return name
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with an accompanying JSON file holding the full export.
//
// Defaults to the playlist key as the base filename & creates {base}_songs.csv and {base}_metadata.json
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = BaseName(export)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ExportToJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		SongsFile:    songsFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a playlist to {dir}/README.md, creating the directory.
//
// Directory name defaults to the playlist key.
func WriteMarkdownExport(export *Export, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = BaseName(export)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {key}_songs.txt as the filename.
func WriteTextExport(export *Export, path string) (string, error) {
	if path == "" {
		path = BaseName(export) + "_songs.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a playlist, song content included, as indented JSON.
//
// Defaults to {key}.json as the filename.
func WriteJSONExport(export *Export, path string) (string, error) {
	if path == "" {
		path = BaseName(export) + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}
