// Package patchfile parses git format-patch documents and derives the
// canonical on-disk filenames for fetched series.
package patchfile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nitcli/nit/internal/model"
)

var (
	// First line of a patch file: "From <40-hex-hash> <date>".
	fromRe = regexp.MustCompile(`^From [a-f0-9]{40} \w+ \w+ \d{1,2} \d{2}:\d{2}:\d{2} \d{4}$`)

	// Subject header, including indented continuation lines.
	subjectRe = regexp.MustCompile(`(?m)^Subject: (.*(?:\n .*)*)`)

	// First blank-line-delimited paragraph after the headers, up to the
	// diffstat/signature boundary.
	bodyRe = regexp.MustCompile(`(?s)\n\n(.*?)(?:\n--[ -]|$)`)

	// "[PATCH v2 3/7]" style version and number counter.
	versionNumberRe = regexp.MustCompile(`\[PATCH\s+(?:v(?P<version>\d+)\s*)?(?P<number>\d+)/(?:\d+)`)
)

// Patch is one parsed patch document of a series.
type Patch struct {
	// Raw is the full patch file content, published verbatim as the event
	// content.
	Raw     string
	Subject string
	Body    string
}

// Parse extracts the subject and body from a raw patch file. Multi-line
// subjects are joined without their newlines; the body is the paragraph
// between the headers and the diffstat or signature marker, trimmed.
func Parse(content string) (Patch, error) {
	firstLine, _, _ := strings.Cut(content, "\n")
	if !fromRe.MatchString(firstLine) {
		return Patch{}, &model.DecodeError{What: "patch file, first line must start with 'From '", Raw: firstLine}
	}

	subjectMatch := subjectRe.FindStringSubmatch(content)
	if subjectMatch == nil {
		return Patch{}, &model.DecodeError{What: "patch file, no Subject header", Raw: firstLine}
	}
	subject := strings.ReplaceAll(strings.TrimSpace(subjectMatch[1]), "\n", "")

	bodyMatch := bodyRe.FindStringSubmatch(content)
	if bodyMatch == nil || strings.TrimSpace(bodyMatch[1]) == "" {
		return Patch{}, &model.DecodeError{What: "patch file, no body paragraph", Raw: subject}
	}

	return Patch{
		Raw:     content,
		Subject: subject,
		Body:    strings.TrimSpace(bodyMatch[1]),
	}, nil
}

// Filename derives the canonical patch filename from the subject:
// "<version-prefix><4-digit-number>-<slug>.patch", where number 0 forces
// the literal "cover-letter" name.
func (p Patch) Filename() (string, error) {
	var version, number string
	if strings.Contains(p.Subject, "[PATCH]") {
		version, number = "", "1"
	} else {
		var err error
		version, number, err = versionAndNumber(p.Subject)
		if err != nil {
			return "", err
		}
	}

	var name string
	if number == "0" {
		name = "cover-letter"
	} else {
		var err error
		name, err = slugFromSubject(p.Subject)
		if err != nil {
			return "", err
		}
	}

	ordinal, err := strconv.Atoi(number)
	if err != nil {
		return "", &model.DecodeError{What: "patch number", Raw: number}
	}
	filename := fmt.Sprintf("%s%04d-%s", version, ordinal, name)
	return strings.ReplaceAll(filename, "--", "-") + ".patch", nil
}

// versionAndNumber extracts the "v<N>-" prefix (empty when absent) and the
// mandatory patch number from the "[PATCH vN x/y]" counter.
func versionAndNumber(subject string) (string, string, error) {
	match := versionNumberRe.FindStringSubmatch(subject)
	if match == nil {
		return "", "", &model.DecodeError{What: "patch subject", Raw: subject}
	}
	version := match[versionNumberRe.SubexpIndex("version")]
	if version != "" {
		version = "v" + version + "-"
	}
	return version, match[versionNumberRe.SubexpIndex("number")], nil
}

// slugFromSubject cleans the subject text after the "]" into a filename
// slug: lowercased, non [a-z0-9._-] characters replaced by "-", capped at
// 60 characters, trimmed of stray dashes.
func slugFromSubject(subject string) (string, error) {
	_, rest, found := strings.Cut(subject, "]")
	if !found {
		return "", &model.DecodeError{What: "patch subject, no [PATCH ...]", Raw: subject}
	}

	var cleaned strings.Builder
	for _, c := range strings.ToLower(strings.TrimSpace(rest)) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '_' {
			cleaned.WriteRune(c)
		} else {
			cleaned.WriteByte('-')
		}
	}

	slug := cleaned.String()
	if len(slug) > 60 {
		slug = slug[:60]
	}
	slug = strings.TrimSpace(strings.Trim(slug, "-"))
	return strings.ReplaceAll(slug, "--", "-"), nil
}
