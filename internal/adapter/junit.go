package adapter

import (
	"encoding/xml"
	"time"
)

// junitTestSuites is the standard JUnit XML report shape, the structured
// format spec.md §4.2 prefers over text-parsing when a framework's
// reporter can emit it (pytest --junitxml, jest-junit, gotest's
// gotestsum -junitfile, cargo-nextest's --message-format junit, etc.).
type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
	// Some reporters (older JUnit, some Go tools) emit a single
	// <testsuite> as the document root instead of wrapping it.
	junitTestSuite
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Errors   int             `xml:"errors,attr"`
	Skipped  int             `xml:"skipped,attr"`
	Time     float64         `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string     `xml:"name,attr"`
	ClassName string     `xml:"classname,attr"`
	Time      float64    `xml:"time,attr"`
	Failure   *junitBody `xml:"failure"`
	Error     *junitBody `xml:"error"`
	Skipped   *junitBody `xml:"skipped"`
}

type junitBody struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// parseJUnitXML converts a JUnit XML report into a RunResult. Handles
// both the <testsuites> wrapper and a bare root <testsuite>.
func parseJUnitXML(data []byte) (RunResult, error) {
	var doc junitTestSuites
	if err := xml.Unmarshal(data, &doc); err != nil {
		return RunResult{}, err
	}

	suites := doc.Suites
	if len(suites) == 0 && len(doc.Cases) > 0 {
		suites = []junitTestSuite{doc.junitTestSuite}
	}

	result := RunResult{}
	for _, suite := range suites {
		for _, tc := range suite.Cases {
			cr := CaseResult{
				Name:     qualifiedCaseName(tc),
				Duration: time.Duration(tc.Time * float64(time.Second)),
			}
			switch {
			case tc.Failure != nil:
				cr.Passed = false
				cr.Message = firstNonEmpty(tc.Failure.Message, tc.Failure.Text)
				result.Failed++
			case tc.Error != nil:
				cr.Passed = false
				cr.Message = firstNonEmpty(tc.Error.Message, tc.Error.Text)
				result.Errors++
			case tc.Skipped != nil:
				cr.Skipped = true
				result.Skipped++
			default:
				cr.Passed = true
				result.Passed++
			}
			result.Cases = append(result.Cases, cr)
			result.Total++
		}
	}

	result.Success = result.Failed == 0 && result.Errors == 0 && result.Total > 0
	return result, nil
}

func qualifiedCaseName(tc junitTestCase) string {
	if tc.ClassName == "" {
		return tc.Name
	}
	return tc.ClassName + "." + tc.Name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
