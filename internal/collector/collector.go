package collector

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/imishinist/graphalytics-kgraphs/internal/models"
)

const maxLineLength = 1024 * 1024

// Patterns holds the marker expressions the engine prints into its log.
// Each expression must have exactly one capture group holding a number.
type Patterns struct {
	// Start and End capture epoch milliseconds around the timed section.
	Start string
	End   string

	// Elapsed, when set, captures the processing time in milliseconds and
	// takes precedence over Start/End.
	Elapsed string
}

// Collector extracts the processing time from engine logs.
type Collector struct {
	start   *regexp.Regexp
	end     *regexp.Regexp
	elapsed *regexp.Regexp
	logger  *logrus.Entry
}

// New compiles the marker patterns. A nil logger discards all output.
func New(patterns Patterns, logger *logrus.Entry) (*Collector, error) {
	if logger == nil {
		logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	c := &Collector{logger: logger}
	var err error
	if c.start, err = compile("start", patterns.Start); err != nil {
		return nil, err
	}
	if c.end, err = compile("end", patterns.End); err != nil {
		return nil, err
	}
	if c.elapsed, err = compile("elapsed", patterns.Elapsed); err != nil {
		return nil, err
	}
	if c.elapsed == nil && (c.start == nil || c.end == nil) {
		return nil, fmt.Errorf("either an elapsed pattern or both start and end patterns are required")
	}
	return c, nil
}

func compile(name, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s marker pattern: %w", name, err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("%s marker pattern %q must have exactly one capture group", name, pattern)
	}
	return re, nil
}

type markers struct {
	start, end, elapsed          float64
	hasStart, hasEnd, hasElapsed bool
}

// CollectProcessingTime scans every file below logDir for marker lines and
// returns the processing time in seconds. It returns nil when the markers are
// missing or unusable; the caller records the metric as unavailable.
func (c *Collector) CollectProcessingTime(logDir string) *models.BenchmarkMetric {
	logger := c.logger.WithField("log_dir", logDir)

	var m markers
	err := filepath.WalkDir(logDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return c.scanFile(path, &m, logger)
	})
	if err != nil {
		logger.WithField("err", err).Warn("processing time unavailable: could not read platform logs")
		return nil
	}

	switch {
	case m.hasElapsed:
		return models.DurationMetric(millis(m.elapsed))
	case m.hasStart && m.hasEnd:
		if m.end < m.start {
			logger.WithFields(logrus.Fields{
				"start": m.start,
				"end":   m.end,
			}).Warn("processing time unavailable: end marker precedes start marker")
			return nil
		}
		return models.DurationMetric(millis(m.end - m.start))
	}

	logger.Warn("processing time unavailable: no processing time markers found")
	return nil
}

func (c *Collector) scanFile(path string, m *markers, logger *logrus.Entry) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineLength)
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := match(c.elapsed, line, logger); ok {
			m.elapsed, m.hasElapsed = v, true
		}
		// Workers log their own markers; the timed section spans the
		// earliest start to the latest end regardless of file order.
		if v, ok := match(c.start, line, logger); ok && (!m.hasStart || v < m.start) {
			m.start, m.hasStart = v, true
		}
		if v, ok := match(c.end, line, logger); ok && (!m.hasEnd || v > m.end) {
			m.end, m.hasEnd = v, true
		}
	}
	return scanner.Err()
}

func match(re *regexp.Regexp, line string, logger *logrus.Entry) (float64, bool) {
	if re == nil {
		return 0, false
	}
	sub := re.FindStringSubmatch(line)
	if sub == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(sub[1], 64)
	if err != nil {
		logger.WithField("line", line).Warn("ignoring malformed processing time marker")
		return 0, false
	}
	return v, true
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
