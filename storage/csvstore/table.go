package csvstore

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/stilbar/core"
)

// tableHeader is the fixed column layout of the compound table.
// The first column holds either a legacy sequence number or an 8-hex-char
// identity; the reader accepts both, the writer always emits identities.
var tableHeader = []string{"num", "compound_name", "barcode", "smiles"}

const utf8BOM = "\xef\xbb\xbf"

// parsedTable is the result of reading a table file.
type parsedTable struct {
	records []*core.Compound
	skipped int  // malformed rows dropped during parsing
	hasBOM  bool // original file started with a byte-order marker
}

// parseTable decodes the raw file contents. Rows missing a structure,
// missing both code and name, or failing to parse as CSV are counted and
// skipped rather than failing the whole load, so a damaged file degrades
// to a partial or empty table.
func parseTable(data []byte) *parsedTable {
	result := &parsedTable{}

	if bytes.HasPrefix(data, []byte(utf8BOM)) {
		result.hasBOM = true
		data = data[len(utf8BOM):]
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.skipped++
			continue
		}

		if first && isHeaderRow(row) {
			first = false
			continue
		}
		first = false

		// Tolerate short rows from hand-edited files.
		cells := make([]string, 4)
		for j := 0; j < len(row) && j < 4; j++ {
			cells[j] = strings.TrimSpace(row[j])
		}

		name, code, structure := cells[1], cells[2], cells[3]
		if structure == "" || (code == "" && name == "") {
			result.skipped++
			continue
		}

		compound := &core.Compound{
			Identity:  core.IdentityFromContent(code, name),
			Name:      name,
			Code:      code,
			Structure: structure,
		}
		if num, err := strconv.Atoi(cells[0]); err == nil {
			compound.Num = num
		}
		result.records = append(result.records, compound)
	}

	return result
}

// isHeaderRow reports whether the first table row is the column header.
func isHeaderRow(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(row[0]))
	return first == "num" || first == "identity" || first == "num/identity"
}

// encodeTable renders the full table as file contents, identity layout.
// A single buffer is produced so the caller can write the file in one pass.
func encodeTable(records []*core.Compound, withBOM bool) ([]byte, error) {
	var buf bytes.Buffer
	if withBOM {
		buf.WriteString(utf8BOM)
	}

	writer := csv.NewWriter(&buf)
	if err := writer.Write(tableHeader); err != nil {
		return nil, err
	}
	for _, record := range records {
		row := []string{string(record.Identity), record.Name, record.Code, record.Structure}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// writeBackup copies the exact pre-mutation file contents to a sibling
// .backup file. This is the only recovery mechanism the table has.
func writeBackup(path string, contents []byte) error {
	return os.WriteFile(path+backupSuffix, contents, 0644)
}

// backupSuffix is appended to the table path for pre-deletion backups.
const backupSuffix = ".backup"
