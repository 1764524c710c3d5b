package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jaa/mvpipe/internal/config"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

type Check struct {
	Severity Severity `json:"severity"`
	Name     string   `json:"name"`
	Message  string   `json:"message"`
}

type Report struct {
	Checks []Check `json:"checks"`
}

func (r Report) HasErrors() bool {
	return r.ErrorCount() > 0
}

func (r Report) ErrorCount() int {
	count := 0
	for _, check := range r.Checks {
		if check.Severity == SeverityError {
			count++
		}
	}
	return count
}

func (r *Report) add(severity Severity, name, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Severity: severity, Name: name, Message: fmt.Sprintf(format, args...)})
}

type Checker struct {
	LookPath      func(string) (string, error)
	ReadVersion   func(ctx context.Context, binary string, args ...string) (string, error)
	CheckReadable func(string) error
	CheckWritable func(string) error
	Matrix        map[string]dependencyMatrixRule
}

func NewChecker() *Checker {
	return &Checker{
		LookPath:      exec.LookPath,
		ReadVersion:   defaultReadVersion,
		CheckReadable: checkDirReadable,
		CheckWritable: checkDirWritable,
		Matrix:        defaultDependencyMatrix(),
	}
}

type dependency struct {
	Key         string
	Binary      string
	VersionArgs []string

	// Optional dependencies degrade a feature instead of blocking the run.
	Optional bool
	Impact   string
}

type dependencyMatrixRule struct {
	MinVersion          string
	MaxVersionExclusive string
	KnownBad            map[string]string
}

func defaultDependencyMatrix() map[string]dependencyMatrixRule {
	return map[string]dependencyMatrixRule{
		"yt-dlp": {
			MinVersion:          "2023.1.0",
			MaxVersionExclusive: "2027.0.0",
			KnownBad:            map[string]string{},
		},
	}
}

func (c *Checker) Check(ctx context.Context, cfg config.Config) Report {
	report := Report{Checks: []Check{}}

	for _, dep := range requiredBinaries(cfg) {
		c.checkDependency(ctx, &report, dep)
	}

	if cfg.Transcribe.Device == config.DeviceCUDA {
		if _, err := c.LookPath("nvidia-smi"); err != nil {
			report.add(SeverityWarn, "gpu", "transcribe_device is cuda but nvidia-smi was not found; use --transcribe-device cpu if transcription fails")
		} else {
			report.add(SeverityInfo, "gpu", "nvidia-smi found for cuda transcription")
		}
	}

	c.checkLibrary(&report, cfg.MusicLibrary)
	c.checkOutput(&report, cfg.OutputDir)

	return report
}

func requiredBinaries(cfg config.Config) []dependency {
	return []dependency{
		{Key: "yt-dlp", Binary: orDefault(cfg.YtDlpPath, config.DefaultYtDlpPath), VersionArgs: []string{"--version"}},
		{Key: "ffmpeg", Binary: orDefault(cfg.FFmpegPath, config.DefaultFFmpegPath), VersionArgs: []string{"-version"}},
		{Key: "ffprobe", Binary: "ffprobe", VersionArgs: []string{"-version"}, Optional: true, Impact: "tags of non-mp3/flac/m4a files will not be read"},
		{Key: "whisper", Binary: orDefault(cfg.WhisperPath, config.DefaultWhisperPath), VersionArgs: []string{"--version"}, Optional: true, Impact: "transcription will be skipped"},
	}
}

func (c *Checker) checkDependency(ctx context.Context, report *Report, dep dependency) {
	location, err := c.LookPath(dep.Binary)
	if err != nil {
		if dep.Optional {
			report.add(SeverityWarn, "dependency", "%s not found in PATH; %s", dep.Binary, dep.Impact)
		} else {
			report.add(SeverityError, "dependency", "%s not found in PATH", dep.Binary)
		}
		return
	}
	report.add(SeverityInfo, "dependency", "%s found at %s", dep.Binary, location)

	output, err := c.ReadVersion(ctx, dep.Binary, dep.VersionArgs...)
	if err != nil {
		report.add(SeverityWarn, "dependency", "%s version could not be read: %v", dep.Binary, err)
		return
	}
	version, err := extractVersion(output)
	if err != nil {
		report.add(SeverityWarn, "dependency", "%s version output is unrecognized: %q", dep.Binary, firstLine(output))
		return
	}

	rule, ok := c.matrix()[dep.Key]
	if !ok {
		report.add(SeverityInfo, "dependency", "%s version %s", dep.Binary, version)
		return
	}
	if reason, knownBad := rule.KnownBad[version]; knownBad {
		message := fmt.Sprintf("%s version %s is blocked by compatibility matrix", dep.Binary, version)
		if strings.TrimSpace(reason) != "" {
			message = fmt.Sprintf("%s: %s", message, reason)
		}
		report.add(SeverityError, "dependency", "%s", message)
		return
	}
	if compareVersions(version, rule.MinVersion) < 0 {
		report.add(SeverityError, "dependency", "%s version %s is below minimum %s", dep.Binary, version, rule.MinVersion)
		return
	}
	if strings.TrimSpace(rule.MaxVersionExclusive) != "" && compareVersions(version, rule.MaxVersionExclusive) >= 0 {
		report.add(SeverityError, "dependency", "%s version %s is outside supported matrix >=%s and <%s", dep.Binary, version, rule.MinVersion, rule.MaxVersionExclusive)
		return
	}
	report.add(SeverityInfo, "dependency", "%s version %s is compatible with supported matrix >=%s and <%s", dep.Binary, version, rule.MinVersion, rule.MaxVersionExclusive)
}

func (c *Checker) checkLibrary(report *Report, raw string) {
	if strings.TrimSpace(raw) == "" {
		report.add(SeverityWarn, "filesystem", "music_library is not configured")
		return
	}
	dir, err := config.ExpandPath(raw)
	if err != nil {
		report.add(SeverityError, "filesystem", "music_library is invalid: %v", err)
		return
	}
	if err := c.CheckReadable(dir); err != nil {
		report.add(SeverityError, "filesystem", "music_library %s is not readable: %v", dir, err)
		return
	}
	report.add(SeverityInfo, "filesystem", "music_library %s is readable", dir)
}

// checkOutput accepts an output root that does not exist yet as long as the
// closest existing ancestor is writable, since the run creates it.
func (c *Checker) checkOutput(report *Report, raw string) {
	if strings.TrimSpace(raw) == "" {
		report.add(SeverityWarn, "filesystem", "output_dir is not configured")
		return
	}
	dir, err := config.ExpandPath(raw)
	if err != nil {
		report.add(SeverityError, "filesystem", "output_dir is invalid: %v", err)
		return
	}
	target := existingAncestor(dir)
	if err := c.CheckWritable(target); err != nil {
		report.add(SeverityError, "filesystem", "output_dir %s is not writable: %v", target, err)
		return
	}
	if target != dir {
		report.add(SeverityInfo, "filesystem", "output_dir %s will be created under writable %s", dir, target)
		return
	}
	report.add(SeverityInfo, "filesystem", "output_dir %s is writable", dir)
}

func existingAncestor(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}

func cloneDependencyMatrix(input map[string]dependencyMatrixRule) map[string]dependencyMatrixRule {
	cloned := make(map[string]dependencyMatrixRule, len(input))
	for key, rule := range input {
		bad := make(map[string]string, len(rule.KnownBad))
		for version, reason := range rule.KnownBad {
			bad[version] = reason
		}
		cloned[key] = dependencyMatrixRule{
			MinVersion:          rule.MinVersion,
			MaxVersionExclusive: rule.MaxVersionExclusive,
			KnownBad:            bad,
		}
	}
	return cloned
}

func (c *Checker) matrix() map[string]dependencyMatrixRule {
	if len(c.Matrix) == 0 {
		return defaultDependencyMatrix()
	}
	return cloneDependencyMatrix(c.Matrix)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func firstLine(value string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(value), "\n")
	return line
}

func defaultReadVersion(ctx context.Context, binary string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

func checkDirReadable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	_, err = os.ReadDir(path)
	return err
}

func checkDirWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	file, err := os.CreateTemp(path, ".mvpipe-write-check-*")
	if err != nil {
		return err
	}
	name := file.Name()
	_ = file.Close()
	_ = os.Remove(name)
	return nil
}

// Matches "2024.08.06", "6.1.1" and the two-part "n6.1" style ffmpeg uses.
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

func extractVersion(raw string) (string, error) {
	matches := versionPattern.FindStringSubmatch(raw)
	if len(matches) != 4 {
		return "", fmt.Errorf("no semantic version found")
	}
	patch := matches[3]
	if patch == "" {
		patch = "0"
	}
	return fmt.Sprintf("%s.%s.%s", matches[1], matches[2], patch), nil
}

func compareVersions(lhs string, rhs string) int {
	leftParts := strings.Split(lhs, ".")
	rightParts := strings.Split(rhs, ".")
	for i := 0; i < 3; i++ {
		leftValue := 0
		rightValue := 0
		if i < len(leftParts) {
			leftValue, _ = strconv.Atoi(leftParts[i])
		}
		if i < len(rightParts) {
			rightValue, _ = strconv.Atoi(rightParts[i])
		}
		if leftValue > rightValue {
			return 1
		}
		if leftValue < rightValue {
			return -1
		}
	}
	return 0
}
