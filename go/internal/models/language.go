package models

import "fmt"

// Language is an editor language.
type Language string

const (
	LanguageC      Language = "c"
	LanguageCPP    Language = "cpp"
	LanguagePython Language = "python"
	LanguageJava   Language = "java"
)

// DefaultLanguage is selected when a session starts.
const DefaultLanguage = LanguageCPP

// ParseLanguage validates an editor language name.
func ParseLanguage(s string) (Language, error) {
	switch l := Language(s); l {
	case LanguageC, LanguageCPP, LanguagePython, LanguageJava:
		return l, nil
	default:
		return "", fmt.Errorf("unsupported language %q", s)
	}
}

// DefaultTemplates is the starter code loaded when a language is selected.
var DefaultTemplates = map[Language]string{
	LanguageC: `#include <stdio.h>

int main() {
    // Write your solution here
    
    return 0;
}`,
	LanguageCPP: `#include <bits/stdc++.h>
using namespace std;

int main() {
    ios_base::sync_with_stdio(false);
    cin.tie(NULL);
    
    // Write your solution here
    
    return 0;
}`,
	LanguagePython: `# Write your solution here

def solve():
    pass

solve()`,
	LanguageJava: `import java.util.*;
import java.io.*;

public class Main {
    public static void main(String[] args) throws Exception {
        Scanner sc = new Scanner(System.in);
        
        // Write your solution here
        
    }
}`,
}
