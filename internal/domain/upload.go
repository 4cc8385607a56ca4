package domain

// ImageUpload is an uploaded image file held in memory
type ImageUpload struct {
	Filename string
	Data     []byte
}

func (u ImageUpload) Size() int {
	return len(u.Data)
}
