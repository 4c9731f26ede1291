package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

func TestRun_Usage(t *testing.T) {
	assert.Equal(t, 2, run(nil))
	assert.Equal(t, 2, run([]string{"a", "b"}))
	assert.Equal(t, 2, run([]string{"-unknown"}))
}

func TestRun_BadConfig(t *testing.T) {
	t.Setenv("CHUNKUPLOAD_BACKEND", "ftp")
	assert.Equal(t, 1, run([]string{"-env-file", "", "somefile"}))
}

func TestAbsPath(t *testing.T) {
	assert.Equal(t, "", absPath(""))
	assert.Equal(t, "/etc/x.yaml", absPath("/etc/x.yaml"))
	assert.True(t, filepath.IsAbs(absPath("x.yaml")))
}

func TestProgressLogger(t *testing.T) {
	capture, logger := testutil.NewLogCapture()
	log := progressLogger(logger)

	for _, loaded := range []int64{0, 10, 50, 99, 100, 150, 1000} {
		log(uploadtypes.ProgressEvent{Loaded: loaded, Total: 1000})
	}
	log(uploadtypes.ProgressEvent{Loaded: 5, Total: 0})

	var percents []string
	for _, e := range capture.Entries() {
		percents = append(percents, e.Attrs["percent"])
	}
	assert.Equal(t, []string{"0", "10", "100"}, percents)
}
