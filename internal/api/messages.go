package api

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers follow strongholder.proto.

type Empty struct{}

func (m *Empty) appendWire(b []byte) []byte { return b }

func (m *Empty) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	return skipField(num, typ, b)
}

type SignupRequest struct {
	Username string
	Password string
}

func (m *SignupRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Username)
	return appendString(b, 2, m.Password)
}

func (m *SignupRequest) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return readString(typ, b, &m.Username)
	case 2:
		return readString(typ, b, &m.Password)
	}
	return skipField(num, typ, b)
}

type SigninRequest struct {
	Username string
	Password string
}

func (m *SigninRequest) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Username)
	return appendString(b, 2, m.Password)
}

func (m *SigninRequest) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return readString(typ, b, &m.Username)
	case 2:
		return readString(typ, b, &m.Password)
	}
	return skipField(num, typ, b)
}

type TokenResponse struct {
	AccessToken string
}

func (m *TokenResponse) appendWire(b []byte) []byte { return appendString(b, 1, m.AccessToken) }

func (m *TokenResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readString(typ, b, &m.AccessToken)
	}
	return skipField(num, typ, b)
}

// SessionResponse describes the caller's token. ExpiresAt is Unix seconds.
type SessionResponse struct {
	UserID    string
	ExpiresAt int64
}

func (m *SessionResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserID)
	return appendInt64(b, 2, m.ExpiresAt)
}

func (m *SessionResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return readString(typ, b, &m.UserID)
	case 2:
		return readInt64(typ, b, &m.ExpiresAt)
	}
	return skipField(num, typ, b)
}

type Archive struct {
	Name string
	Time string
}

func (m *Archive) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Name)
	return appendString(b, 2, m.Time)
}

func (m *Archive) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return readString(typ, b, &m.Name)
	case 2:
		return readString(typ, b, &m.Time)
	}
	return skipField(num, typ, b)
}

type ListArchivesResponse struct {
	Archives []Archive
}

func (m *ListArchivesResponse) appendWire(b []byte) []byte {
	for i := range m.Archives {
		b = appendMessage(b, 1, &m.Archives[i])
	}
	return b
}

func (m *ListArchivesResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		var a Archive
		n, err := readMessage(typ, b, &a)
		if err != nil {
			return 0, err
		}
		m.Archives = append(m.Archives, a)
		return n, nil
	}
	return skipField(num, typ, b)
}

type ArchiveRequest struct {
	Archive string
}

func (m *ArchiveRequest) appendWire(b []byte) []byte { return appendString(b, 1, m.Archive) }

func (m *ArchiveRequest) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readString(typ, b, &m.Archive)
	}
	return skipField(num, typ, b)
}

type ArchiveFile struct {
	Type  string
	Path  string
	Mtime string
	Size  int64
}

func (m *ArchiveFile) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Type)
	b = appendString(b, 2, m.Path)
	b = appendString(b, 3, m.Mtime)
	return appendInt64(b, 4, m.Size)
}

func (m *ArchiveFile) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return readString(typ, b, &m.Type)
	case 2:
		return readString(typ, b, &m.Path)
	case 3:
		return readString(typ, b, &m.Mtime)
	case 4:
		return readInt64(typ, b, &m.Size)
	}
	return skipField(num, typ, b)
}

type ListArchiveContentResponse struct {
	Archive string
	Files   []ArchiveFile
}

func (m *ListArchiveContentResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, m.Archive)
	for i := range m.Files {
		b = appendMessage(b, 2, &m.Files[i])
	}
	return b
}

func (m *ListArchiveContentResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		return readString(typ, b, &m.Archive)
	case 2:
		var f ArchiveFile
		n, err := readMessage(typ, b, &f)
		if err != nil {
			return 0, err
		}
		m.Files = append(m.Files, f)
		return n, nil
	}
	return skipField(num, typ, b)
}

type LogsResponse struct {
	Logs []string
}

func (m *LogsResponse) appendWire(b []byte) []byte { return appendRepeatedString(b, 1, m.Logs) }

func (m *LogsResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readRepeatedString(typ, b, &m.Logs)
	}
	return skipField(num, typ, b)
}

type RestoreResponse struct {
	URL string
}

func (m *RestoreResponse) appendWire(b []byte) []byte { return appendString(b, 1, m.URL) }

func (m *RestoreResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readString(typ, b, &m.URL)
	}
	return skipField(num, typ, b)
}

type RepositoryKeyResponse struct {
	Key []byte
}

func (m *RepositoryKeyResponse) appendWire(b []byte) []byte { return appendBytes(b, 1, m.Key) }

func (m *RepositoryKeyResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readBytes(typ, b, &m.Key)
	}
	return skipField(num, typ, b)
}

type ServerPublicKeyResponse struct {
	Key string
}

func (m *ServerPublicKeyResponse) appendWire(b []byte) []byte { return appendString(b, 1, m.Key) }

func (m *ServerPublicKeyResponse) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readString(typ, b, &m.Key)
	}
	return skipField(num, typ, b)
}

type SendSSHKeyRequest struct {
	PublicKey []byte
}

func (m *SendSSHKeyRequest) appendWire(b []byte) []byte { return appendBytes(b, 1, m.PublicKey) }

func (m *SendSSHKeyRequest) readField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	if num == 1 {
		return readBytes(typ, b, &m.PublicKey)
	}
	return skipField(num, typ, b)
}
