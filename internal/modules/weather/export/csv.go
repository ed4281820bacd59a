package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ClaudineiMS/gdash/internal/modules/weather/types"
)

// cellReplacer swaps field and line separators instead of quoting.
var cellReplacer = strings.NewReplacer(
	",", ";",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// CSV renders one header row plus one row per reading, newline separated,
// without a trailing newline. Zero readings yield EmptyCSVHeader.
func CSV(readings []types.Reading, cols []Column) string {
	if len(readings) == 0 {
		return EmptyCSVHeader
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers(cols), ","))

	fields := make([]string, len(cols))
	for _, r := range readings {
		for i, c := range cols {
			fields[i] = FormatCell(c.Value(r))
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(fields, ","))
	}
	return b.String()
}

// FormatCell renders one CSV cell: nil is empty, instants are ISO-8601 in UTC
// with millisecond precision, everything else is stringified with commas and
// line breaks substituted.
func FormatCell(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return types.FormatTimestamp(t)
	case *time.Time:
		if t == nil {
			return ""
		}
		return types.FormatTimestamp(*t)
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case *float64:
		if t == nil {
			return ""
		}
		s = strconv.FormatFloat(*t, 'f', -1, 64)
	case fmt.Stringer:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	return cellReplacer.Replace(s)
}
