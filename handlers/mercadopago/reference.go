package mercadopago

import (
	"strings"
)

// The external reference attached at checkout carries the selected plan id
// through MercadoPago's round-trip as "<plan>_<suffix>". Plan ids must not
// contain the delimiter; the suffix may, since decoding only splits on the
// first occurrence.
const referenceDelimiter = "_"

func EncodeReference(planID, suffix string) string {
	return planID + referenceDelimiter + suffix
}

func DecodeReference(reference string) (planID, suffix string) {
	planID, suffix, _ = strings.Cut(reference, referenceDelimiter)
	return planID, suffix
}
