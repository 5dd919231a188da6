// Package flagx extracts subsets of command-line flags so that each config
// layer can parse only the flags it owns.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belong to valueFlags.
// See FilterArgsWithBools for the accepted forms.
func FilterArgs(args []string, valueFlags []string) []string {
	return FilterArgsWithBools(args, valueFlags, nil)
}

// FilterArgsWithBools keeps the flags listed in valueFlags together with
// their values, and the boolean flags listed in boolFlags without consuming
// the following token.
//
// Accepted forms:
//
//	-db vault.db        value flag, separate value
//	-db=vault.db        value flag, inline value
//	-no-encrypt         boolean flag
//	-no-encrypt=false   boolean flag, inline value
//
// The result is never nil.
func FilterArgsWithBools(args []string, valueFlags []string, boolFlags []string) []string {
	values := toSet(valueFlags)
	bools := toSet(boolFlags)

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			_, isValue := values[name]
			_, isBool := bools[name]
			if isValue || isBool {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := values[arg]; ok {
			filtered = append(filtered, arg)
			// a following token that is not itself a flag is the value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// ConfigFileFlag returns the path given with -c or -config in args, or ""
// when neither is present. When both appear the last one wins.
func ConfigFileFlag(args []string) string {
	var config string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "path to JSON config file")
	fs.StringVar(&config, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}

// JsonConfigFlags is ConfigFileFlag applied to os.Args.
func JsonConfigFlags() string {
	return ConfigFileFlag(os.Args[1:])
}
