// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package selection

import (
	"fmt"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// GenerateBibTeX renders the selection set as a BibTeX bibliography, one
// entry per record keyed by citation key. Text fields are escaped per BibTeX
// conventions so titles with special characters survive rendering.
func GenerateBibTeX(set types.SelectionSet) string {
	var b strings.Builder
	for _, r := range set.Records {
		fmt.Fprintf(&b, "@article{%s,\n", r.CitationKey)
		fmt.Fprintf(&b, "  title = {%s},\n", escapeBibTeX(r.Title))
		if len(r.Authors) > 0 {
			escaped := make([]string, len(r.Authors))
			for i, a := range r.Authors {
				escaped[i] = escapeBibTeX(a)
			}
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(escaped, " and "))
		}
		if r.Year > 0 {
			fmt.Fprintf(&b, "  year = {%d},\n", r.Year)
		}
		if r.Venue != "" {
			fmt.Fprintf(&b, "  journal = {%s},\n", escapeBibTeX(r.Venue))
		}
		if r.DOI != "" {
			fmt.Fprintf(&b, "  doi = {%s},\n", r.DOI)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "  url = {%s},\n", r.URL)
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	return b.String()
}

// bibtexEscaper rewrites the characters BibTeX treats specially. Backslash
// must map to a macro, not "\\", which BibTeX reads as a line break.
var bibtexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

func escapeBibTeX(s string) string {
	return bibtexEscaper.Replace(s)
}
