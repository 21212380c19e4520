package model

import (
	"fmt"
	"strings"
)

// Author of a change
type Author struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name" toml:"name"`
	Email string `json:"email" yaml:"email" mapstructure:"email" toml:"email"`
}

func (a Author) String() string {
	if a.Email == "" {
		return a.Name
	}
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// ParseAuthor reads back an author from its "name <email>" representation
func ParseAuthor(s string) Author {
	start := strings.LastIndex(s, "<")
	if start < 0 || !strings.HasSuffix(s, ">") {
		return Author{Name: s}
	}
	return Author{
		Name:  strings.TrimSpace(s[:start]),
		Email: s[start+1 : len(s)-1],
	}
}
