package models

// HistoryItem is a previously woken device. MAC is the identity key.
type HistoryItem struct {
	MAC        string `json:"mac" yaml:"mac"`
	DeviceName string `json:"deviceName" yaml:"deviceName"`
	IPAddress  string `json:"ipAddress" yaml:"ipAddress"`
}

// FormData converts the entry back into wake input.
func (h HistoryItem) FormData() WakeFormData {
	return WakeFormData{
		MAC:        h.MAC,
		DeviceName: h.DeviceName,
		IPAddress:  h.IPAddress,
	}
}
