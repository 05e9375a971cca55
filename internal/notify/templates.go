package notify

import "fmt"

// renderMessage produces the user-facing text for a notification kind. The
// second return value is false for kinds the dispatcher does not know, which
// must result in no record being created.
func renderMessage(kind Kind, senderName, itemName string) (string, bool) {
	switch kind {
	case KindNewRequest:
		return fmt.Sprintf("%s wants to borrow your item: %s", senderName, itemName), true
	case KindApproved:
		return fmt.Sprintf("Your borrow request for %q was approved.", itemName), true
	case KindDenied:
		return fmt.Sprintf("Your borrow request for %q was denied.", itemName), true
	case KindCancelled:
		return fmt.Sprintf("A borrow request for %q was cancelled.", itemName), true
	case KindReturned:
		return fmt.Sprintf("%s has marked %q as returned.", senderName, itemName), true
	default:
		return "", false
	}
}
