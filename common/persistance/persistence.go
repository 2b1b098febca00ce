package persistance

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/satori/go.uuid"
	"github.com/youtube/vitess/go/ioutil2"
)

const MACHINE_ID_FILENAME = "machine_id"

func QiDir() (qiPath string, err error) {
	home := os.Getenv("HOME")
	if home == "" {
		home, err = os.Getwd()
		if err != nil {
			return
		}
	}
	qiPath = filepath.Join(home, ".qi")
	err = os.MkdirAll(qiPath, os.FileMode(0700))
	return
}

func QiDirFile(file string) (fullPath string, err error) {
	qiPath, err := QiDir()
	if err != nil {
		return
	}
	fullPath = filepath.Join(qiPath, file)
	return
}

// MachineId returns the stable identifier of this host, generating and
// persisting a fresh one on first use.
func MachineId() (id string, err error) {
	idFile, err := QiDirFile(MACHINE_ID_FILENAME)
	if err != nil {
		return
	}
	idBytes, readErr := ioutil.ReadFile(idFile)
	if readErr == nil {
		id = strings.TrimSpace(string(idBytes))
		if id != "" {
			return
		}
	}
	id = uuid.NewV4().String()
	err = ioutil2.WriteFileAtomic(idFile, []byte(id+"\n"), os.FileMode(0600))
	return
}
