package s3

// Object describes an uploaded object.
type Object struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// URL returns the s3:// form of the object location.
func (o Object) URL() string {
	return "s3://" + o.Bucket + "/" + o.Key
}
