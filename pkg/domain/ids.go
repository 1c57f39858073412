package domain

import (
	"crypto/rand"
	"encoding/binary"
	"regexp"
	"strconv"
	"time"
)

// ID prefixes tag generated identifiers with their entity kind.
const (
	PrefixShipment          = "SHP"
	PrefixClient            = "CLI"
	PrefixTask              = "TSK"
	PrefixNotification      = "NTF"
	PrefixVoucher           = "VCH"
	PrefixWarehouseItem     = "WHI"
	PrefixWarehouseShipment = "WHS"
	PrefixReceiptVoucher    = "RCV"
	PrefixDeliveryVoucher   = "DLV"
)

const randomSuffixLen = 9

var idPattern = regexp.MustCompile(`^[A-Z]{3}_[0-9]+_[0-9a-z]+$`)

// NewID returns "<prefix>_<epoch-ms>_<base36 random>".
func NewID(prefix string, now time.Time) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	if len(suffix) > randomSuffixLen {
		suffix = suffix[:randomSuffixLen]
	}
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix
}

// ValidID reports whether id has the generated identifier shape.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
