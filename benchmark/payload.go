package benchmark

import "fmt"

// payloadPattern feeds the synthetic payloads. The mixed alphabet resists
// accidental compression on providers that compress transparently, while
// staying cheap to generate.
const payloadPattern = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Payload builds a synthetic object body of exactly size bytes.
func Payload(size int64) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = payloadPattern[i%len(payloadPattern)]
	}
	return buf
}

// TestKey generates the deterministic key for one object of a trial. Write
// and read trials share this scheme, so a read trial finds exactly what the
// preceding write trial stored without any out-of-band bookkeeping.
func TestKey(prefix string, size int64, index int) string {
	return fmt.Sprintf("%s/%dbytes/file_%05d.dat", prefix, size, index)
}
