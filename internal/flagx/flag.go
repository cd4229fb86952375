// Package flagx lets several independent parsers share os.Args: each one
// picks out only the flags it owns and ignores everything else.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the allowed flags from args, together with their
// values. Both "-f value" and "-f=value" forms are recognised; a following
// argument that starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// StringFlag returns the value of a string flag known under any of names
// (without the leading dash), looking only at os.Args. The last occurrence
// wins; an absent flag yields "".
func StringFlag(names ...string) string {
	var value string

	allowed := make([]string, 0, len(names))
	fs := flag.NewFlagSet(names[0], flag.ContinueOnError)
	fs.SetOutput(discard{})
	for _, n := range names {
		allowed = append(allowed, "-"+n)
		fs.StringVar(&value, n, "", n)
	}

	_ = fs.Parse(FilterArgs(os.Args[1:], allowed))
	return value
}

// JsonConfigFlags returns the JSON config path given with -c or -config.
func JsonConfigFlags() string {
	return StringFlag("config", "c")
}

// EnvFileFlag returns the dotenv file path given with -env.
func EnvFileFlag() string {
	return StringFlag("env")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
