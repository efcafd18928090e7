package debug

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nit-test/nit/internal/adapter"
)

const (
	sentinelFilename     = "fix_in_progress.json"
	maxStdoutLength      = 2000
	maxFailingTestsShown = 5
	reproductionTimeout  = 30 * time.Second
	fullSuiteTimeout     = 120 * time.Second
)

// --- Crash-recovery: sentinel file + atomic backup/restore --------------
//
// Grounded on services/trace/dag/checkpoint.go's SaveCheckpoint: every
// file FixVerifier writes for its own bookkeeping (the sentinel) goes
// through create-temp-in-same-dir -> write -> fsync -> close -> rename,
// so a crash mid-write never leaves a half-written sentinel behind.
// Unlike a DAG checkpoint the sentinel isn't resumed across versions, so
// there's no version field — only a SHA256 checksum of the backup file
// it points at, so crash recovery can tell a corrupt backup from a good
// one before blindly copying it over the source.

type sentinelDoc struct {
	OriginalPath   string `json:"original_path"`
	BackupPath     string `json:"backup_path"`
	BackupChecksum string `json:"backup_checksum"`
}

func sentinelDir(projectRoot string) string {
	d := filepath.Join(projectRoot, ".nit", "tmp")
	_ = os.MkdirAll(d, 0o755)
	return d
}

func sentinelPath(projectRoot string) string {
	return filepath.Join(sentinelDir(projectRoot), sentinelFilename)
}

func checksumFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeAtomic serializes data to path via a temp-file-then-rename in the
// same directory, the pattern checkpoint.go's SaveCheckpoint uses.
func writeAtomic(dir, finalPath string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", finalPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", finalPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", finalPath, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename to %s: %w", finalPath, err)
	}
	ok = true
	return nil
}

func writeSentinel(projectRoot, originalPath, backupPath string) error {
	doc := sentinelDoc{
		OriginalPath:   originalPath,
		BackupPath:     backupPath,
		BackupChecksum: checksumFile(backupPath),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("nit/debug: marshal sentinel: %w", err)
	}
	return writeAtomic(sentinelDir(projectRoot), sentinelPath(projectRoot), data)
}

func removeSentinel(projectRoot string) error {
	path := sentinelPath(projectRoot)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

// RestorePendingFixes checks for a crash-recovery sentinel and restores
// the backup unconditionally if one is found. Call at orchestrator
// startup, before any new verification run — the same place the
// original's _restore_pending_fixes runs during nit startup.
func RestorePendingFixes(projectRoot string) (bool, error) {
	path := sentinelPath(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("nit/debug: read sentinel: %w", err)
	}

	var doc sentinelDoc
	if unmarshalErr := json.Unmarshal(data, &doc); unmarshalErr != nil {
		_ = os.Remove(path)
		return false, fmt.Errorf("nit/debug: corrupt sentinel: %w", unmarshalErr)
	}

	var restoreErr error
	if backupData, err := os.ReadFile(doc.BackupPath); err == nil {
		if doc.BackupChecksum != "" {
			sum := sha256.Sum256(backupData)
			if hex.EncodeToString(sum[:]) != doc.BackupChecksum {
				restoreErr = fmt.Errorf("nit/debug: backup %s failed checksum verification, restoring anyway", doc.BackupPath)
			}
		}
		if err := os.WriteFile(doc.OriginalPath, backupData, 0o644); err != nil {
			restoreErr = fmt.Errorf("nit/debug: restore %s: %w", doc.OriginalPath, err)
		}
	} else {
		restoreErr = fmt.Errorf("nit/debug: sentinel found but backup missing: %s", doc.BackupPath)
	}

	_ = os.Remove(path)
	return true, restoreErr
}

// --- In-process crash recovery (signal handler) --------------------------
//
// Go has no atexit; the original's atexit.register(_atexit_restore) is
// reproduced here as a one-time SIGINT/SIGTERM handler that restores
// every still-pending fix before the process exits. A panic inside
// Verify is instead handled by Verify's own defer/recover, since a
// recovered panic doesn't terminate the process and so never needs the
// signal path.

type pendingRestore struct {
	projectRoot  string
	originalPath string
	backupPath   string
}

var (
	pendingMu    sync.Mutex
	pendingFixes []pendingRestore
	signalOnce   sync.Once
)

func registerPending(p pendingRestore) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	pendingFixes = append(pendingFixes, p)
}

func unregisterPending(p pendingRestore) {
	pendingMu.Lock()
	defer pendingMu.Unlock()
	for i, e := range pendingFixes {
		if e == p {
			pendingFixes = append(pendingFixes[:i], pendingFixes[i+1:]...)
			return
		}
	}
}

func restoreAllPending() {
	pendingMu.Lock()
	fixes := make([]pendingRestore, len(pendingFixes))
	copy(fixes, pendingFixes)
	pendingMu.Unlock()

	for _, p := range fixes {
		if data, err := os.ReadFile(p.backupPath); err == nil {
			_ = os.WriteFile(p.originalPath, data, 0o644)
		}
		_ = removeSentinel(p.projectRoot)
	}
}

func registerCrashRecovery() {
	signalOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			restoreAllPending()
			os.Exit(1)
		}()
	})
}

// --- FixVerifier -----------------------------------------------------------

// VerificationTask is FixVerifier's input.
type VerificationTask struct {
	Target               string
	Fix                  GeneratedFix
	OriginalCode         string
	ReproductionTestFile string
	Adapter              adapter.TestAdapter
}

// VerificationReport is FixVerifier's output.
type VerificationReport struct {
	IsVerified       bool
	BugFixed         bool
	RegressionsFound bool
	TestResults      string
	FailingTests     []string
	Notes            string
}

// FixVerifier applies a generated fix to disk just long enough to run
// the reproduction test and the full suite, then restores the original
// file unconditionally — even on error, even on crash (spec.md §4.9).
type FixVerifier struct {
	projectRoot string
	backupDir   string
}

// NewFixVerifier prepares a FixVerifier for projectRoot: it creates the
// backup directory, installs the crash-recovery signal handler, and
// immediately restores any fix left in-progress by a previous,
// interrupted run.
func NewFixVerifier(projectRoot string) (*FixVerifier, error) {
	backupDir := filepath.Join(projectRoot, ".nit", "tmp", "fix_backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("nit/debug: create backup dir: %w", err)
	}
	registerCrashRecovery()
	_, _ = RestorePendingFixes(projectRoot)

	return &FixVerifier{projectRoot: projectRoot, backupDir: backupDir}, nil
}

func (v *FixVerifier) Name() string { return "FixVerifier" }

func (v *FixVerifier) Description() string {
	return "Verifies fixes don't introduce regressions and actually fix the bug"
}

// Verify backs up target, writes the sentinel, applies the fix, runs the
// reproduction test then the full suite, and restores the backup no
// matter what happens in between.
func (v *FixVerifier) Verify(ctx context.Context, task VerificationTask) (VerificationReport, error) {
	if task.Adapter == nil {
		return VerificationReport{}, errors.New("nit/debug: test adapter is required")
	}

	backupPath, err := v.backupFile(task.Target, task.OriginalCode)
	if err != nil {
		return VerificationReport{}, fmt.Errorf("nit/debug: backup %s: %w", task.Target, err)
	}

	absTarget := v.resolveTarget(task.Target)
	if err := writeSentinel(v.projectRoot, absTarget, backupPath); err != nil {
		return VerificationReport{}, fmt.Errorf("nit/debug: write sentinel: %w", err)
	}

	entry := pendingRestore{projectRoot: v.projectRoot, originalPath: absTarget, backupPath: backupPath}
	registerPending(entry)

	var report VerificationReport
	var applyErr error

	func() {
		defer func() {
			_ = v.restoreBackup(task.Target, backupPath)
			_ = removeSentinel(v.projectRoot)
			unregisterPending(entry)
		}()

		if err := v.applyFix(task.Target, task.Fix.FixedCode); err != nil {
			applyErr = fmt.Errorf("nit/debug: apply fix to %s: %w", task.Target, err)
			return
		}

		bugFixed := v.verifyBugFixed(ctx, task.ReproductionTestFile, task.Adapter)
		regressionsFound, testOutput, failingTests := v.checkRegressions(ctx, task.Adapter)
		isVerified := bugFixed && !regressionsFound

		report = VerificationReport{
			IsVerified:       isVerified,
			BugFixed:         bugFixed,
			RegressionsFound: regressionsFound,
			TestResults:      testOutput,
			FailingTests:     failingTests,
			Notes:            v.generateNotes(isVerified, bugFixed, regressionsFound, failingTests),
		}
	}()

	if applyErr != nil {
		return VerificationReport{}, applyErr
	}
	return report, nil
}

func (v *FixVerifier) resolveTarget(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(v.projectRoot, filePath)
}

// backupFile persists content under a timestamped name in backupDir,
// atomically (temp-then-rename), the same SaveCheckpoint-derived pattern
// the sentinel write uses.
func (v *FixVerifier) backupFile(filePath, content string) (string, error) {
	timestamp := time.Now().UnixMilli()
	name := filepath.Base(filePath) + "." + strconv.FormatInt(timestamp, 10) + ".bak"
	backupPath := filepath.Join(v.backupDir, name)
	if err := writeAtomic(v.backupDir, backupPath, []byte(content)); err != nil {
		return "", err
	}
	return backupPath, nil
}

func (v *FixVerifier) applyFix(filePath, fixedCode string) error {
	return os.WriteFile(v.resolveTarget(filePath), []byte(fixedCode), 0o644)
}

func (v *FixVerifier) restoreBackup(filePath, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("nit/debug: read backup %s: %w", backupPath, err)
	}
	return os.WriteFile(v.resolveTarget(filePath), data, 0o644)
}

// verifyBugFixed runs the reproduction test and reports whether it now
// passes. Absent reproduction test or a run error is treated the same
// way the original does: no test to fail means nothing disproves the
// fix, so it's assumed fixed; a run error, conversely, means it isn't.
func (v *FixVerifier) verifyBugFixed(ctx context.Context, reproTestFile string, ad adapter.TestAdapter) bool {
	if reproTestFile == "" {
		return true
	}
	if _, err := os.Stat(reproTestFile); err != nil {
		return true
	}

	result, err := ad.RunTests(ctx, v.projectRoot, []string{reproTestFile}, reproductionTimeout, false)
	if err != nil {
		return false
	}
	if len(result.Cases) > 0 {
		for _, c := range result.Cases {
			if !c.Passed {
				return false
			}
		}
		return true
	}
	return result.Success
}

// checkRegressions runs the full suite and reports which cases, if any,
// now fail that didn't fail in the baseline.
func (v *FixVerifier) checkRegressions(ctx context.Context, ad adapter.TestAdapter) (bool, string, []string) {
	result, err := ad.RunTests(ctx, v.projectRoot, nil, fullSuiteTimeout, false)
	if err != nil {
		return true, "Test execution failed: " + err.Error(), []string{"(test run failed)"}
	}

	testOutput := result.RawOutput
	if len(testOutput) > maxStdoutLength {
		testOutput = testOutput[:maxStdoutLength]
	}

	var failingTests []string
	regressionsFound := false
	if len(result.Cases) > 0 {
		for _, c := range result.Cases {
			if !c.Passed {
				failingTests = append(failingTests, c.Name)
				regressionsFound = true
			}
		}
	} else if !result.Success {
		regressionsFound = true
		failingTests = append(failingTests, "(unknown - see output)")
	}

	return regressionsFound, testOutput, failingTests
}

func (v *FixVerifier) generateNotes(isVerified, bugFixed, regressionsFound bool, failingTests []string) string {
	if isVerified {
		return "Fix verified successfully. Bug is fixed and no regressions detected."
	}

	var parts []string
	if !bugFixed {
		parts = append(parts, "Bug not fixed - reproduction test still fails. "+
			"The fix may be incomplete or incorrect.")
	}
	if regressionsFound {
		parts = append(parts, fmt.Sprintf("Regressions detected - %d test(s) started failing "+
			"after applying the fix:", len(failingTests)))
		shown := failingTests
		if len(shown) > maxFailingTestsShown {
			shown = shown[:maxFailingTestsShown]
		}
		for _, name := range shown {
			parts = append(parts, "  - "+name)
		}
		if len(failingTests) > maxFailingTestsShown {
			parts = append(parts, fmt.Sprintf("  ... and %d more", len(failingTests)-maxFailingTestsShown))
		}
		parts = append(parts, "\nThe fix needs to be revised to avoid breaking existing functionality.")
	}
	if len(parts) == 0 {
		parts = append(parts, "Verification completed but results are inconclusive. Manual review recommended.")
	}

	return strings.Join(parts, "\n")
}
