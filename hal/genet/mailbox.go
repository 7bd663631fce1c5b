package genet

// TagGetMACAddress is the VideoCore mailbox property tag that reads the
// board's Ethernet hardware address.
const TagGetMACAddress uint32 = 0x00010003

// Mailbox is the firmware property channel capability.
type Mailbox interface {
	// Property sends a request for tag and writes the response value into
	// buf. The request value, if any, is read from buf.
	Property(tag uint32, buf []byte) error
}

// MailboxFunc adapts a function to a Mailbox.
type MailboxFunc func(tag uint32, buf []byte) error

// Property implements Mailbox.
func (f MailboxFunc) Property(tag uint32, buf []byte) error { return f(tag, buf) }
