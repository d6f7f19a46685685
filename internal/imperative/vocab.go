package imperative

import (
	"sort"
	"strings"
)

// verbForms is the closed vocabulary of side-effecting verbs, with surface
// inflections listed explicitly so the matcher stays a flat alternation.
// Detection runs on case-folded text, so everything here is lowercase.
var verbForms = []string{
	"execute", "executes", "executed", "executing",
	"run", "runs", "running",
	"delete", "deletes", "deleted", "deleting",
	"remove", "removes", "removed", "removing",
	"erase", "erases", "erased", "erasing",
	"wipe", "wipes", "wiped", "wiping",
	"format", "formats", "formatted", "formatting",
	"install", "installs", "installed", "installing",
	"uninstall", "uninstalls", "uninstalled", "uninstalling",
	"disable", "disables", "disabled", "disabling",
	"enable", "enables", "enabled", "enabling",
	"override", "overrides", "overrode", "overriding",
	"bypass", "bypasses", "bypassed", "bypassing",
	"ignore", "ignores", "ignored", "ignoring",
	"terminate", "terminates", "terminated", "terminating",
	"kill", "kills", "killed", "killing",
	"shutdown", "shut down",
	"reboot", "reboots", "rebooted", "rebooting",
	"download", "downloads", "downloaded", "downloading",
	"upload", "uploads", "uploaded", "uploading",
	"exfiltrate", "exfiltrates", "exfiltrated", "exfiltrating",
	"destroy", "destroys", "destroyed", "destroying",
	"launch", "launches", "launched", "launching",
	"drop", "drops", "dropped", "dropping",
	"truncate", "truncates", "truncated", "truncating",
	"overwrite", "overwrites", "overwrote", "overwriting",
}

// requestMarkers are the politeness/obligation frames that turn a restricted
// verb into a request. General conversation without a restricted verb
// immediately after the marker must not match.
var requestMarkers = []string{
	"please",
	"kindly",
	"could you please",
	"could you",
	"would you please",
	"would you",
	"can you please",
	"can you",
	"you must",
	"you should",
	"you need to",
	"make sure to",
	"be sure to",
	"go ahead and",
}

// modals precede a restricted verb in a modal direct command.
var modals = []string{
	"must", "should", "shall", "have to", "has to", "need to", "needs to", "will",
}

// execFenceSuffixes mark a fenced-block language tag as an execution
// directive, independent of the fence contents.
var execFenceSuffixes = []string{
	"-execute", "-exec", "-autorun", "-auto-run",
}

// execFenceTags are language tags that are execution directives on their own.
var execFenceTags = map[string]bool{
	"autorun": true,
	"execute": true,
}

// autoRunComments are recognized auto-run conventions on a fence opener line.
var autoRunComments = []string{
	"# autorun", "// autorun", "# auto-run", "// auto-run", "#!autorun",
}

// toolMarkers are literal tokens signalling structured tool/function calls.
var toolMarkers = []string{
	"<tool_call>", "</tool_call>", "<function_call>", "[tool_code]",
}

// alternation joins literals into a regexp alternation, longest first so a
// shorter form never shadows a longer one ("exec" vs "execute").
func alternation(forms []string) string {
	sorted := make([]string, len(forms))
	copy(sorted, forms)
	sort.Slice(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	escaped := make([]string, len(sorted))
	for i, f := range sorted {
		escaped[i] = strings.ReplaceAll(f, " ", `\s+`)
	}
	return strings.Join(escaped, "|")
}
