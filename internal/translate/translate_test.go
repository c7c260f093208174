package translate

import (
	"bytes"
	"testing"

	"github.com/canlink/slcan-gateway/internal/can"
	"github.com/canlink/slcan-gateway/internal/slcan"
)

func TestStandardDataFrameRoundTrip(t *testing.T) {
	id, err := can.NewStandardID(0x001)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	src, err := can.NewDataFrame(id, payload)
	if err != nil {
		t.Fatal(err)
	}

	pf, err := ToProtocol(src)
	if err != nil {
		t.Fatalf("ToProtocol: %v", err)
	}
	if pf.ID().Kind() != slcan.StandardID || pf.ID().Raw() != 0x001 {
		t.Fatalf("identifier changed: kind=%v raw=0x%X", pf.ID().Kind(), pf.ID().Raw())
	}
	if pf.IsRemote() || pf.DLC() != 8 || !bytes.Equal(pf.Data(), payload) {
		t.Fatalf("frame changed: remote=%v dlc=%d data=% X", pf.IsRemote(), pf.DLC(), pf.Data())
	}

	back, err := ToDriver(pf)
	if err != nil {
		t.Fatalf("ToDriver: %v", err)
	}
	if back != src {
		t.Fatalf("round trip not identity: got %+v want %+v", back, src)
	}
}

func TestExtendedRemoteFrameRoundTrip(t *testing.T) {
	id, err := slcan.NewExtendedID(0x1ABCDE)
	if err != nil {
		t.Fatal(err)
	}
	src, err := slcan.NewRemoteFrame(id, 4)
	if err != nil {
		t.Fatal(err)
	}

	df, err := ToDriver(src)
	if err != nil {
		t.Fatalf("ToDriver: %v", err)
	}
	if df.ID().Kind() != can.ExtendedID || df.ID().Raw() != 0x1ABCDE {
		t.Fatalf("identifier changed: kind=%v raw=0x%X", df.ID().Kind(), df.ID().Raw())
	}
	if !df.IsRemote() || df.DLC() != 4 || df.Data() != nil {
		t.Fatalf("frame changed: remote=%v dlc=%d data=%v", df.IsRemote(), df.DLC(), df.Data())
	}

	back, err := ToProtocol(df)
	if err != nil {
		t.Fatalf("ToProtocol: %v", err)
	}
	if back != src {
		t.Fatalf("round trip not identity: got %+v want %+v", back, src)
	}
}

// A zero-length data frame stays a data frame in both directions; it must
// never be reinterpreted as a remote request.
func TestEmptyDataFrameStaysDataFrame(t *testing.T) {
	cid, err := can.NewStandardID(0x42)
	if err != nil {
		t.Fatal(err)
	}
	cf, err := can.NewDataFrame(cid, nil)
	if err != nil {
		t.Fatal(err)
	}
	pf, err := ToProtocol(cf)
	if err != nil {
		t.Fatalf("ToProtocol: %v", err)
	}
	if pf.IsRemote() || pf.DLC() != 0 {
		t.Fatalf("driver->protocol: remote=%v dlc=%d", pf.IsRemote(), pf.DLC())
	}

	sid, err := slcan.NewExtendedID(0x42)
	if err != nil {
		t.Fatal(err)
	}
	sf, err := slcan.NewDataFrame(sid, nil)
	if err != nil {
		t.Fatal(err)
	}
	df, err := ToDriver(sf)
	if err != nil {
		t.Fatalf("ToDriver: %v", err)
	}
	if df.IsRemote() || df.DLC() != 0 {
		t.Fatalf("protocol->driver: remote=%v dlc=%d", df.IsRemote(), df.DLC())
	}
}

func TestIdentifierKindPreserved(t *testing.T) {
	// A standard id whose raw value fits either width must stay standard.
	id, err := can.NewStandardID(0x100)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := ToProtocolID(id)
	if err != nil {
		t.Fatalf("ToProtocolID: %v", err)
	}
	if pid.Kind() != slcan.StandardID {
		t.Fatalf("kind widened to %v", pid.Kind())
	}
	eid, err := slcan.NewExtendedID(0x100)
	if err != nil {
		t.Fatal(err)
	}
	did, err := ToDriverID(eid)
	if err != nil {
		t.Fatalf("ToDriverID: %v", err)
	}
	if did.Kind() != can.ExtendedID {
		t.Fatalf("kind narrowed to %v", did.Kind())
	}
}
