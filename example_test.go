package chunkupload_test

import (
	"context"
	"fmt"
	"log"

	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/storage/chunkupload/uploadtypes"
)

// ExampleClient_Upload uploads a payload larger than the part size, which
// is split into a multipart upload.
func ExampleClient_Upload() {
	client, err := chunkupload.NewWithStore(&testutil.MockStore{}, chunkupload.WithQueueSize(2))
	if err != nil {
		log.Fatal(err)
	}

	payload := make([]byte, 12*1024*1024)
	var loaded int64
	res, err := client.Upload(context.Background(), "backups", "db/dump.bin", payload,
		chunkupload.WithProgressFunc(func(e uploadtypes.ProgressEvent) { loaded = e.Loaded }),
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("parts=%d loaded=%d\n", res.Parts, loaded)
	// Output: parts=3 loaded=12582912
}

// ExampleClient_Put stores a small JSON document in a single request.
func ExampleClient_Put() {
	client, err := chunkupload.NewWithStore(&testutil.MockStore{})
	if err != nil {
		log.Fatal(err)
	}

	if err := client.Put(context.Background(), "configs", "app.json", []byte(`{"debug":false}`)); err != nil {
		log.Fatal(err)
	}
	fmt.Println("stored")
	// Output: stored
}
