package broken

//sqlwith:fromrow db=sqlite
type Row struct {
	X int64
}

// DecodeRow refers to a decoder that has not been generated yet.
var _ = decodeMissing
