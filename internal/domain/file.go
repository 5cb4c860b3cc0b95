package domain

// File is a stored text object addressed by its uploaded file name.
type File struct {
	Name    string
	Content []byte
}
