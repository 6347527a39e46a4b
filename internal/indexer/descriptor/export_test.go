package descriptor

var RenderSig = renderSig
