package persistance

import (
	"io/ioutil"
	"os"
	"testing"
)

func TestMachineIdIsStable(t *testing.T) {
	tmpHome, err := ioutil.TempDir("", "qi-test-home")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpHome)
	oldHome := os.Getenv("HOME")
	defer os.Setenv("HOME", oldHome)
	os.Setenv("HOME", tmpHome)

	first, err := MachineId()
	if err != nil {
		t.Fatal(err)
	}
	if first == "" {
		t.Fatal("machine id is empty")
	}
	second, err := MachineId()
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("machine id changed: %q then %q", first, second)
	}
}
