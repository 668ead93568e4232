package models

// ArmedSlot is the provider selected during the pairing handshake. A nil
// ArmedSlot means the session is unarmed.
type ArmedSlot struct {
	Role       ProviderRole `json:"role"`
	ProviderID string       `json:"provider_id"`
}

// PairingSession is the ephemeral two-step handshake state: arm a provider,
// then couple them with a patient into a new block. Last arm wins; the armed
// slot clears once a coupling commits.
type PairingSession struct {
	ID    string     `json:"session_id"`
	Armed *ArmedSlot `json:"armed,omitempty"`
}
