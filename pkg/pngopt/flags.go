package pngopt

import (
	"strings"

	"github.com/spf13/pflag"
)

// FlagName is the command-line spelling of an option key.
func FlagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

// RegisterFlags adds one flag per option key to fs. Flag defaults are placeholders;
// only flags set on the command line become overrides.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, key := range Keys {
		name := FlagName(key)
		if _, ok := boolFields[key]; ok {
			fs.Bool(name, false, "set "+key)
			continue
		}
		switch key {
		case keyLevel:
			fs.Int(name, 2, "optimization preset, 0 (fast) to 6 (slow)")
		case "filter":
			fs.StringSlice(name, nil, "row filters to try, e.g. None,Sub,Paeth,MinSum")
		case "interlace":
			fs.String(name, "", "Off, Adam7, or keep to leave the input unchanged")
		case "strip":
			fs.String(name, "none", "none, safe, all, strip:<chunks> or keep:<chunks>")
		case "deflate":
			fs.String(name, "libdeflater:11", "libdeflater:<1-12>, zopfli:<iterations> or zlib[:<levels>[/<strategies>[/<window>]]]")
		case "timeout":
			fs.Float64(name, 0, "give up after this many seconds")
		}
	}
}

// FlagOverrides returns the flags changed on fs as overrides, in registration order.
func FlagOverrides(fs *pflag.FlagSet) ([]Override, error) {
	var out []Override
	for _, key := range Keys {
		name := FlagName(key)
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}

		var (
			v   any
			err error
		)
		if _, ok := boolFields[key]; ok {
			v, err = fs.GetBool(name)
		} else {
			switch key {
			case keyLevel:
				v, err = fs.GetInt(name)
			case "filter":
				v, err = fs.GetStringSlice(name)
			case "interlace":
				var s string
				s, err = fs.GetString(name)
				v = s
				if s == "keep" {
					v = NoInstruction
				}
			case "strip", "deflate":
				v, err = fs.GetString(name)
			case "timeout":
				v, err = fs.GetFloat64(name)
			}
		}
		if err != nil {
			return nil, &Error{Category: CategoryInvalidValue, Key: key, Message: err.Error(), Err: err}
		}
		out = append(out, Override{Key: key, Value: v})
	}
	return out, nil
}
