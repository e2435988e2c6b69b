package resolver

// monomerFallback maps bare monomer symbols to generic structures. It is
// consulted only after every catalog strategy has failed, so a catalog
// entry for a single-letter code always wins over the generic structure.
var monomerFallback = map[string]string{
	// T = trans-Resveratrol
	"T": "OC1=CC(O)=CC(/C=C/C2=CC=C(O)C=C2)=C1",
	// H = diH-Resveratrol
	"H": "OC1=CC(O)=CC(CCC2=CC=C(O)C=C2)=C1",
	// C = cis-Resveratrol
	"C": "OC1=CC(O)=CC(/C=C\\C2=CC=C(O)C=C2)=C1",
	// P = diH-Pterostilbene
	"P": "COC1=CC(CCC2=CC=C(O)C=C2)=CC(OC)=C1",
	// M = 0-Methoxy-diH-Resveratrol
	"M": "COC1=CC(O)=CC(CCC2=CC=C(O)C=C2)=C1",
	// X = 8-Methoxy-diH-Resveratrol
	"X": "OC1=CC(O)=CC(CCC2=CC=C(OC)C=C2)=C1",
}
