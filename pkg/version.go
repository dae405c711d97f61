package pillbox

// Version is the released version of the pillbox binaries.
const Version = "0.3.1"
