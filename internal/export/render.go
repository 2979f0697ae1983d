package export

import (
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/englishaccelerators/language-creator/pkg/types"
)

// Header is the column header shared by CSV and spreadsheet exports.
var Header = []string{"identifiercode", "output value"}

func itoa(n int) string { return strconv.Itoa(n) }

// quote wraps v in double quotes, doubling any inner quote.
func quote(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// WriteCSV writes the header line followed by one line per pair. Every pair
// field is quoted; lines are separated by "\n" with no trailing newline.
func WriteCSV(w io.Writer, pairs []types.Pair) error {
	var sb strings.Builder
	sb.WriteString(strings.Join(Header, ","))
	for _, p := range pairs {
		sb.WriteByte('\n')
		sb.WriteString(quote(p.ID))
		sb.WriteByte(',')
		sb.WriteString(quote(p.Value))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

var sheetTmpl = template.Must(template.New("sheet").Parse(`<html><head><meta charset="utf-8"></head><body><table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Pairs}}
<tr><td>{{.ID}}</td><td>{{.Value}}</td></tr>
{{- end}}
</tbody>
</table></body></html>
`))

// WriteSpreadsheet writes pairs as a minimal HTML table that spreadsheet
// applications open as a sheet (.xls).
func WriteSpreadsheet(w io.Writer, pairs []types.Pair) error {
	return sheetTmpl.Execute(w, struct {
		Header []string
		Pairs  []types.Pair
	}{Header, pairs})
}
