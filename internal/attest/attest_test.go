package attest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tracewall/tracewall/internal/verify"
)

func TestNewPassAttestation(t *testing.T) {
	input := "hello world"
	a := New(verify.Pass, verify.Digest(input), input, nil)

	if a.CheckerVersion != verify.Version {
		t.Errorf("checker_version = %q, want %q", a.CheckerVersion, verify.Version)
	}
	if a.OutputSHA256 != verify.Digest(input) {
		t.Errorf("output_sha256 = %q, want digest of output", a.OutputSHA256)
	}
	if a.Violations == nil {
		t.Error("violations must be non-nil so JSON emits [] not null")
	}
	if err := a.Check(input); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestBlockedOutputDigestIsEmptyString(t *testing.T) {
	// Even if a caller hands New a non-empty output, a blocked decision
	// records the empty-string digest.
	a := New(verify.Blocked, verify.Digest("bad input"), "leaked output", [][2]int{{0, 7}})
	if a.OutputSHA256 != EmptySHA256 {
		t.Errorf("output_sha256 = %q, want EmptySHA256", a.OutputSHA256)
	}
	if err := a.Check(""); err != nil {
		t.Errorf("Check: %v", err)
	}
}

func TestMarshalFieldOrder(t *testing.T) {
	a := New(verify.Blocked, verify.Digest("x"), "", [][2]int{{2, 9}})
	data, err := a.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf(`{"checker_version":%q,"input_sha256":%q,"output_sha256":%q,"decision":"blocked","violations":[[2,9]]}`,
		verify.Version, verify.Digest("x"), EmptySHA256)
	if string(data) != want {
		t.Errorf("marshal mismatch:\n got %s\nwant %s", data, want)
	}
}

func TestCheckRejectsTamperedHashes(t *testing.T) {
	a := New(verify.Pass, verify.Digest("in"), "out", nil)

	tampered := a
	tampered.OutputSHA256 = verify.Digest("something else")
	if err := tampered.Check("out"); err == nil {
		t.Error("tampered output hash passed Check")
	}

	blocked := a
	blocked.Decision = string(verify.Blocked)
	if err := blocked.Check(""); err == nil {
		t.Error("blocked attestation with non-empty output digest passed Check")
	}

	unknown := a
	unknown.Decision = "maybe"
	if err := unknown.Check("out"); err == nil {
		t.Error("unknown decision passed Check")
	}
}

func TestCheckRejectsPassWithViolations(t *testing.T) {
	a := New(verify.Pass, verify.Digest("in"), "out", [][2]int{{0, 3}})
	if err := a.Check("out"); err == nil {
		t.Error("pass attestation carrying violations passed Check")
	}
}

func TestDeterministicEncoding(t *testing.T) {
	a := New(verify.Rewritten, verify.Digest("in"), "rewritten out", [][2]int{{1, 4}})
	b := New(verify.Rewritten, verify.Digest("in"), "rewritten out", [][2]int{{1, 4}})
	da, _ := a.Marshal()
	db, _ := b.Marshal()
	if string(da) != string(db) {
		t.Errorf("encodings differ:\n%s\n%s", da, db)
	}
}

func testAttestation(i int) Attestation {
	in := fmt.Sprintf("input %d", i)
	return New(verify.Pass, verify.Digest(in), in, nil)
}

func TestJournalChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := j.Record(testAttestation(i)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	res := VerifyJournal(path)
	if !res.Valid {
		t.Fatalf("chain invalid: %s (line %d)", res.Error, res.ErrorLine)
	}
	if res.Lines != 3 {
		t.Errorf("lines = %d, want 3", res.Lines)
	}
}

func TestJournalFirstEntryUsesGenesis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(testAttestation(0)); err != nil {
		t.Fatal(err)
	}
	j.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("journal is empty")
	}
	if !strings.Contains(scanner.Text(), GenesisHash) {
		t.Errorf("first line does not carry the genesis prev_hash: %s", scanner.Text())
	}
}

func TestJournalReopenContinuesChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(testAttestation(0)); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j2, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j2.Record(testAttestation(1)); err != nil {
		t.Fatal(err)
	}
	j2.Close()

	res := VerifyJournal(path)
	if !res.Valid {
		t.Fatalf("chain broken across reopen: %s (line %d)", res.Error, res.ErrorLine)
	}
	if res.Lines != 2 {
		t.Errorf("lines = %d, want 2", res.Lines)
	}
}

func TestJournalDetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")

	j, err := OpenJournal(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := j.Record(testAttestation(i)); err != nil {
			t.Fatal(err)
		}
	}
	j.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Rewrite the second entry's decision in place.
	lines := strings.Split(string(data), "\n")
	tampered := strings.Replace(lines[1], `"decision":"pass"`, `"decision":"fail"`, 1)
	if tampered == lines[1] {
		t.Fatal("tampering replacement did not apply")
	}
	lines[1] = tampered
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0600); err != nil {
		t.Fatal(err)
	}

	res := VerifyJournal(path)
	if res.Valid {
		t.Fatal("tampered journal verified as valid")
	}
	if res.ErrorLine != 3 {
		t.Errorf("error line = %d, want 3 (the entry after the modified line)", res.ErrorLine)
	}
}

func TestVerifyJournalMissingFile(t *testing.T) {
	res := VerifyJournal(filepath.Join(t.TempDir(), "absent.jsonl"))
	if res.Valid || res.Error == "" {
		t.Errorf("missing file: res = %+v, want invalid with error", res)
	}
}
