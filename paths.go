package logpipe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DateFolderStrategy controls how dated log directories are laid out.
type DateFolderStrategy struct {
	Mode       DateLayout
	DateFormat string
}

// strftimeLayout converts the strftime-style tokens used in configuration
// date formats to a Go time layout. Unknown tokens pass through literally.
func strftimeLayout(format string) string {
	var b strings.Builder
	b.Grow(len(format))
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			b.WriteString("2006")
		case 'y':
			b.WriteString("06")
		case 'm':
			b.WriteString("01")
		case 'd':
			b.WriteString("02")
		case 'H':
			b.WriteString("15")
		case 'M':
			b.WriteString("04")
		case 'S':
			b.WriteString("05")
		case 'j':
			b.WriteString("002")
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func ensureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// datedDirectory returns the directory for moment under baseDir according to
// the strategy, creating it as needed.
func datedDirectory(baseDir string, strategy DateFolderStrategy, moment time.Time) (string, error) {
	var dir string
	if strategy.Mode == LayoutFlat {
		dir = filepath.Join(baseDir, moment.Format(strftimeLayout(strategy.DateFormat)))
	} else {
		dir = filepath.Join(baseDir,
			fmt.Sprintf("%04d", moment.Year()),
			fmt.Sprintf("%02d", int(moment.Month())),
			fmt.Sprintf("%02d", moment.Day()))
	}
	if err := ensureDirectory(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// BuildLogPath maps (base directory, logical filename, calendar moment,
// layout) to the concrete file path for that moment, creating directories
// along the way.
func BuildLogPath(baseDir, filename string, strategy DateFolderStrategy, moment time.Time) (string, error) {
	dir, err := datedDirectory(baseDir, strategy, moment)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}
