package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, Config{FSRoot: t.TempDir()})
	if err != nil || st.Driver() != DriverFilesystem {
		t.Fatalf("expected default fs driver, got %v (%v)", st, err)
	}
	st, err = Open(ctx, Config{Driver: DriverMemory})
	if err != nil || st.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %v (%v)", st, err)
	}
	if _, err := Open(ctx, Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected s3 without bucket to fail")
	}
	if _, err := Open(ctx, Config{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
