package utils

import "strings"

// NormalizeName is the single canonical form for group and member names:
// trimmed, inner whitespace collapsed, upper-cased. It is applied at every
// ledger read and write so one logical member never splits into two keys.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// MemberKey identifies a (group, member) pair.
func MemberKey(groupName, memberName string) string {
	return NormalizeName(groupName) + "|" + NormalizeName(memberName)
}

// BorrowerName renders the loan "name" field: the group alone, or
// "GROUP - MEMBER" for member loans.
func BorrowerName(groupName, memberName string) string {
	group := NormalizeName(groupName)
	member := NormalizeName(memberName)
	if member == "" {
		return group
	}
	return group + " - " + member
}
